package infra

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"refrigas/internal/config"
	"refrigas/internal/dto"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Auth0 runs the OpenID Connect authorization-code flow against an Auth0
// tenant. The id_token is taken from the token endpoint response, received
// over TLS in exchange for the client secret, so its claims are checked for
// issuer, audience and expiry without verifying the signature again.
type Auth0 struct {
	oauth        oauth2.Config
	issuer       string
	clientID     string
	logoutReturn string
	timeout      time.Duration
}

func NewAuth0(cfg *config.Config) *Auth0 {
	base := "https://" + strings.TrimSuffix(cfg.Auth0Domain, "/")
	return &Auth0{
		oauth: oauth2.Config{
			ClientID:     cfg.Auth0ClientID,
			ClientSecret: cfg.Auth0ClientSecret,
			RedirectURL:  cfg.Auth0CallbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/authorize",
				TokenURL: base + "/oauth/token",
			},
		},
		issuer:       base + "/",
		clientID:     cfg.Auth0ClientID,
		logoutReturn: cfg.Auth0LogoutReturnURL,
		timeout:      10 * time.Second,
	}
}

func (a *Auth0) AuthCodeURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// Exchange trades the authorization code for tokens and returns the identity
// carried by the id_token.
func (a *Auth0) Exchange(ctx context.Context, code string) (*dto.Identidad, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth0: exchange: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("auth0: respuesta sin id_token")
	}
	return a.identidad(raw)
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

func (a *Auth0) identidad(raw string) (*dto.Identidad, error) {
	claims := &idTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("auth0: id_token: %w", err)
	}
	if claims.Issuer != a.issuer {
		return nil, fmt.Errorf("auth0: emisor inesperado %q", claims.Issuer)
	}
	audOK := false
	for _, aud := range claims.Audience {
		if aud == a.clientID {
			audOK = true
			break
		}
	}
	if !audOK {
		return nil, errors.New("auth0: audiencia inesperada")
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, errors.New("auth0: id_token expirado")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, errors.New("auth0: correo no verificado")
	}
	return &dto.Identidad{
		Subject: claims.Subject,
		Email:   strings.ToLower(strings.TrimSpace(claims.Email)),
		Nombre:  claims.Name,
	}, nil
}

// LogoutURL ends the Auth0 session and sends the browser back to the app.
func (a *Auth0) LogoutURL() string {
	q := url.Values{}
	q.Set("client_id", a.clientID)
	if a.logoutReturn != "" {
		q.Set("returnTo", a.logoutReturn)
	}
	return strings.TrimSuffix(a.issuer, "/") + "/v2/logout?" + q.Encode()
}
