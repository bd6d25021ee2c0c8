package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type NotificacionesHandler struct {
	svc          service.NotificacionService
	webhookToken string
	presupuesto  time.Duration // scan budget, detached from the request deadline
}

func NewNotificacionesHandler(svc service.NotificacionService, webhookToken string, presupuesto time.Duration) *NotificacionesHandler {
	return &NotificacionesHandler{svc: svc, webhookToken: webhookToken, presupuesto: presupuesto}
}

// Verificar godoc
// @Summary Notifica todas las deudas vencidas
// @Tags notificaciones
// @Produce json
// @Security SessionCookie
// @Success 200 {object} dto.ResultadoVerificacion
// @Router /v1/notificaciones/verificar [post]
func (h *NotificacionesHandler) Verificar(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	if h.presupuesto > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.presupuesto)
		defer cancel()
	}
	resp, err := h.svc.VerificarDeudasVencidas(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Webhook godoc
// @Summary Dispara la verificación desde un cron externo
// @Tags notificaciones
// @Produce json
// @Param Authorization header string true "Bearer <WEBHOOK_SECRET_TOKEN>"
// @Success 200 {object} dto.ResultadoVerificacion
// @Failure 401 {object} apierror.APIError
// @Router /notificaciones/webhook/verificar [post]
func (h *NotificacionesHandler) Webhook(c *gin.Context) {
	if h.webhookToken == "" {
		c.JSON(http.StatusServiceUnavailable, apierror.New("Webhook no configurado"))
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookToken)) != 1 {
		log.Warn().Str("ip", c.ClientIP()).Msg("webhook con token inválido")
		c.JSON(http.StatusUnauthorized, apierror.New("Token inválido"))
		return
	}
	h.Verificar(c)
}

// EnviarRecordatorio godoc
// @Summary Envía un recordatorio de pago al cliente
// @Tags notificaciones
// @Produce json
// @Security SessionCookie
// @Param id path string true "ID de la deuda"
// @Success 200 {object} dto.NotificacionResponse "estado ENVIADA o FALLIDA"
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError "Cliente sin correo"
// @Router /v1/notificaciones/deudas/{id}/recordatorio [post]
func (h *NotificacionesHandler) EnviarRecordatorio(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.EnviarRecordatorio(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificacionesHandler) Historial(c *gin.Context) {
	limite, _ := strconv.Atoi(c.Query("limit"))
	resp, err := h.svc.Historial(c.Request.Context(), limite)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
