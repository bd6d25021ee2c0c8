package middleware

import (
	"net/http"
	"strings"

	"refrigas/internal/apierror"
	"refrigas/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	SesionKey    = "sesion"
	CookieSesion = "refrigas_sesion"
)

// SessionAuth validates the session token on every protected route. The
// browser sends it as a cookie; API clients may use a Bearer header.
func SessionAuth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		claims, err := auth.Validar(c.Request.Context(), token)
		if err != nil {
			status, body := apierror.Response(err)
			c.AbortWithStatusJSON(status, body)
			return
		}

		c.Set(SesionKey, claims)
		c.Next()
	}
}

// TokenFromRequest returns the session token from the cookie or, failing
// that, from the Authorization header.
func TokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(CookieSesion); err == nil && v != "" {
		return v
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// RequireRole rejects requests whose session role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetSesion(c)
		if claims == nil || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetSesion returns the claims stored by SessionAuth, or nil.
func GetSesion(c *gin.Context) *service.SesionClaims {
	v, ok := c.Get(SesionKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.SesionClaims)
	return claims
}
