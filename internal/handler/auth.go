package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/dto"
	"refrigas/internal/middleware"
	"refrigas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const cookieEstado = "refrigas_login_state"

type AuthHandler struct {
	svc      service.AuthService
	usuarios service.UsuarioService
	inicio   string // where the browser lands after a successful login
	secure   bool
}

func NewAuthHandler(svc service.AuthService, usuarios service.UsuarioService, inicio string, secure bool) *AuthHandler {
	if inicio == "" {
		inicio = "/"
	}
	return &AuthHandler{svc: svc, usuarios: usuarios, inicio: inicio, secure: secure}
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.secure, true)
}

// Login godoc
// @Summary Redirige al proveedor de identidad
// @Tags auth
// @Success 302
// @Router /login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	url, state := h.svc.LoginURL()
	h.setCookie(c, cookieEstado, state, int((10 * time.Minute).Seconds()))
	c.Redirect(http.StatusFound, url)
}

// Callback godoc
// @Summary Completa el inicio de sesión
// @Description Intercambia el código, verifica que el correo esté autorizado y emite la cookie de sesión.
// @Tags auth
// @Param code query string true "Código de autorización"
// @Param state query string true "Estado emitido en /login"
// @Success 302
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Router /callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		log.Warn().Str("error", e).Str("descripcion", c.Query("error_description")).Msg("login rechazado por el proveedor")
		c.JSON(http.StatusForbidden, apierror.New("Inicio de sesión cancelado"))
		return
	}

	esperado, err := c.Cookie(cookieEstado)
	recibido := c.Query("state")
	if err != nil || esperado == "" || subtle.ConstantTimeCompare([]byte(esperado), []byte(recibido)) != 1 {
		c.JSON(http.StatusBadRequest, apierror.New("Estado de inicio de sesión inválido"))
		return
	}
	h.setCookie(c, cookieEstado, "", -1)

	sesion, err := h.svc.Callback(c.Request.Context(), c.Query("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.setCookie(c, middleware.CookieSesion, sesion.Token, int(time.Until(sesion.Expira).Seconds()))
	c.Redirect(http.StatusFound, h.inicio)
}

// Logout godoc
// @Summary Cierra la sesión
// @Tags auth
// @Success 302
// @Router /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	destino := h.svc.Logout(c.Request.Context(), middleware.TokenFromRequest(c))
	h.setCookie(c, middleware.CookieSesion, "", -1)
	c.Redirect(http.StatusFound, destino)
}

// Me godoc
// @Summary Usuario de la sesión actual
// @Tags auth
// @Produce json
// @Security SessionCookie
// @Success 200 {object} dto.UsuarioResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id := usuarioActual(c)
	if id == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	resp, err := h.usuarios.Obtener(c.Request.Context(), *id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Usuarios Handler ─────────────────────────────────────────────────────────

type UsuariosHandler struct{ svc service.UsuarioService }

func NewUsuariosHandler(svc service.UsuarioService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Crear godoc
// @Summary Autoriza un nuevo correo
// @Tags usuarios
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param body body dto.CrearUsuarioRequest true "Usuario"
// @Success 201 {object} dto.UsuarioResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/usuarios [post]
func (h *UsuariosHandler) Crear(c *gin.Context) {
	var req dto.CrearUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UsuariosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("incluir_inactivos") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarUsuarioRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactivar revokes access without deleting the user. An administrator
// cannot lock themselves out.
func (h *UsuariosHandler) Desactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if actual := usuarioActual(c); actual != nil && *actual == id {
		c.JSON(http.StatusConflict, apierror.New("No puede desactivar su propio usuario"))
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UsuariosHandler) Reactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reactivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
