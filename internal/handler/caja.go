package handler

import (
	"net/http"

	"refrigas/internal/dto"
	"refrigas/internal/service"

	"github.com/gin-gonic/gin"
)

type CajaHandler struct{ svc service.CajaService }

func NewCajaHandler(svc service.CajaService) *CajaHandler { return &CajaHandler{svc: svc} }

// RegistrarTransaccion godoc
// @Summary Registra una transacción de caja
// @Tags caja
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param body body dto.TransaccionRequest true "Transacción (VF, VNF, IO)"
// @Success 201 {object} dto.TransaccionResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/caja/transacciones [post]
func (h *CajaHandler) RegistrarTransaccion(c *gin.Context) {
	var req dto.TransaccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarTransaccion(c.Request.Context(), usuarioActual(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarTransacciones godoc
// @Summary Transacciones de un día
// @Tags caja
// @Produce json
// @Security SessionCookie
// @Param fecha query string false "AAAA-MM-DD, por defecto hoy"
// @Success 200 {array} dto.TransaccionResponse
// @Router /v1/caja/transacciones [get]
func (h *CajaHandler) ListarTransacciones(c *gin.Context) {
	fecha, ok := fechaQuery(c, "fecha")
	if !ok {
		return
	}
	resp, err := h.svc.ListarTransacciones(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenDiario godoc
// @Summary Totales por categoría de un día
// @Tags caja
// @Produce json
// @Security SessionCookie
// @Param fecha query string false "AAAA-MM-DD, por defecto hoy"
// @Success 200 {object} dto.ResumenDiarioResponse
// @Router /v1/caja/resumen-diario [get]
func (h *CajaHandler) ResumenDiario(c *gin.Context) {
	fecha, ok := fechaQuery(c, "fecha")
	if !ok {
		return
	}
	resp, err := h.svc.ResumenDiario(c.Request.Context(), fecha)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CrearCierreHoy godoc
// @Summary Crea el cierre de caja del día
// @Tags caja
// @Produce json
// @Security SessionCookie
// @Success 201 {object} dto.CierreCajaResponse
// @Failure 409 {object} apierror.APIError "Ya existe un cierre para hoy"
// @Router /v1/caja/cierres/hoy [post]
func (h *CajaHandler) CrearCierreHoy(c *gin.Context) {
	resp, err := h.svc.CrearCierreHoy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CajaHandler) ListarCierres(c *gin.Context) {
	page, limit := paginacion(c)
	resp, err := h.svc.ListarCierres(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CajaHandler) ObtenerCierre(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerCierre(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recalcular recomputes the totals of an open close from its transactions.
func (h *CajaHandler) Recalcular(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Recalcular(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar godoc
// @Summary Finaliza el cierre
// @Description Recalcula, registra el conteo físico y congela el cierre.
// @Tags caja
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "ID del cierre"
// @Param body body dto.CerrarCajaRequest true "Conteo físico y observaciones"
// @Success 200 {object} dto.CierreCajaResponse
// @Failure 409 {object} apierror.APIError "Ya cerrado"
// @Router /v1/caja/cierres/{id}/cerrar [post]
func (h *CajaHandler) Cerrar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CerrarCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Cerrar(c.Request.Context(), id, usuarioActual(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
