package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/clock"
	"refrigas/internal/dto"
	"refrigas/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProveedorIdentidad is the external login provider.
type ProveedorIdentidad interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*dto.Identidad, error)
	LogoutURL() string
}

// SesionStore tracks live session ids so they can be revoked early.
type SesionStore interface {
	Guardar(ctx context.Context, sid, usuarioID string, ttl time.Duration) error
	Existe(ctx context.Context, sid string) (bool, error)
	Revocar(ctx context.Context, sid string) error
}

// SesionClaims are embedded in every session token. The registered ID claim
// is the session id checked against the SesionStore.
type SesionClaims struct {
	UsuarioID string `json:"usuario_id"`
	Email     string `json:"email"`
	Rol       string `json:"rol"`
	jwt.RegisteredClaims
}

// Sesion is a freshly issued session.
type Sesion struct {
	Token  string
	Expira time.Time
	Datos  dto.SesionResponse
}

type AuthService interface {
	// LoginURL returns the provider URL to redirect to and the state value
	// the callback must echo back.
	LoginURL() (url string, state string)
	Callback(ctx context.Context, code string) (*Sesion, error)
	// Validar checks signature, expiry, revocation and that the user is
	// still authorized. The returned claims carry the user's current role.
	Validar(ctx context.Context, token string) (*SesionClaims, error)
	// Logout revokes the session, if any, and returns the provider logout URL.
	Logout(ctx context.Context, token string) string
}

type authService struct {
	idp      ProveedorIdentidad
	sesiones SesionStore
	usuarios repository.UsuarioRepository
	secret   []byte
	ttl      time.Duration
	clock    *clock.Clock
}

func NewAuthService(idp ProveedorIdentidad, sesiones SesionStore, usuarios repository.UsuarioRepository, secret string, ttl time.Duration, clk *clock.Clock) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{idp: idp, sesiones: sesiones, usuarios: usuarios, secret: []byte(secret), ttl: ttl, clock: clk}
}

func (s *authService) LoginURL() (string, string) {
	state := uuid.NewString()
	return s.idp.AuthCodeURL(state), state
}

func (s *authService) Callback(ctx context.Context, code string) (*Sesion, error) {
	if code == "" {
		return nil, apierror.Validation("Falta el código de autorización")
	}
	id, err := s.idp.Exchange(ctx, code)
	if err != nil {
		return nil, apierror.Transport("No se pudo completar el inicio de sesión", err)
	}
	if id.Email == "" {
		return nil, apierror.Forbidden("El proveedor no informó un correo")
	}

	u, err := s.usuarios.FindActivoByEmail(ctx, id.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Str("email", id.Email).Msg("inicio de sesión rechazado: usuario no autorizado")
		return nil, apierror.Forbidden("Usuario no autorizado")
	}
	if err != nil {
		return nil, fmt.Errorf("callback: %w", err)
	}

	ahora := s.clock.Now()
	expira := ahora.Add(s.ttl)
	sid := uuid.NewString()
	claims := SesionClaims{
		UsuarioID: u.ID.String(),
		Email:     u.Email,
		Rol:       u.Rol,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(ahora),
			ExpiresAt: jwt.NewNumericDate(expira),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("firmar sesion: %w", err)
	}
	if err := s.sesiones.Guardar(ctx, sid, u.ID.String(), s.ttl); err != nil {
		return nil, apierror.Transport("No se pudo registrar la sesión", err)
	}

	nombre := u.Nombre
	if nombre == "" {
		nombre = id.Nombre
	}
	log.Info().Str("usuario_id", u.ID.String()).Str("rol", u.Rol).Msg("sesión iniciada")
	return &Sesion{
		Token:  token,
		Expira: expira,
		Datos: dto.SesionResponse{
			UsuarioID: u.ID.String(),
			Email:     u.Email,
			Nombre:    nombre,
			Rol:       u.Rol,
			ExpiraEn:  expira,
		},
	}, nil
}

func (s *authService) parse(token string) (*SesionClaims, error) {
	claims := &SesionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *authService) Validar(ctx context.Context, token string) (*SesionClaims, error) {
	claims, err := s.parse(token)
	if err != nil || claims.ID == "" {
		return nil, apierror.Unauthorized("Sesión inválida o expirada")
	}
	vigente, err := s.sesiones.Existe(ctx, claims.ID)
	if err != nil {
		return nil, apierror.Transport("No se pudo verificar la sesión", err)
	}
	if !vigente {
		return nil, apierror.Unauthorized("Sesión revocada")
	}

	uid, err := uuid.Parse(claims.UsuarioID)
	if err != nil {
		return nil, apierror.Unauthorized("Sesión inválida o expirada")
	}
	u, err := s.usuarios.FindByID(ctx, uid)
	if err != nil || !u.Activo {
		return nil, apierror.Unauthorized("Usuario no autorizado")
	}
	claims.Rol = u.Rol
	claims.Email = u.Email
	return claims, nil
}

func (s *authService) Logout(ctx context.Context, token string) string {
	if token != "" {
		if claims, err := s.parse(token); err == nil && claims.ID != "" {
			if err := s.sesiones.Revocar(ctx, claims.ID); err != nil {
				log.Error().Err(err).Str("sid", claims.ID).Msg("no se pudo revocar la sesión")
			}
		}
	}
	return s.idp.LogoutURL()
}
