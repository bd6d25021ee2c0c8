package handler

import (
	"net/http"

	"refrigas/internal/dto"
	"refrigas/internal/service"

	"github.com/gin-gonic/gin"
)

type DeudasHandler struct{ svc service.CarteraService }

func NewDeudasHandler(svc service.CarteraService) *DeudasHandler { return &DeudasHandler{svc: svc} }

// Crear godoc
// @Summary Registra una deuda
// @Tags deudas
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param body body dto.CrearDeudaRequest true "Deuda"
// @Success 201 {object} dto.DeudaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/deudas [post]
func (h *DeudasHandler) Crear(c *gin.Context) {
	var req dto.CrearDeudaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearDeuda(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Lista deudas con saldo y vencimiento derivados
// @Tags deudas
// @Produce json
// @Security SessionCookie
// @Param cliente_id query string false "Filtra por cliente"
// @Param estado query string false "pendiente | pagada | vencida"
// @Success 200 {object} dto.ListadoDeudasResponse
// @Router /v1/deudas [get]
func (h *DeudasHandler) Listar(c *gin.Context) {
	var filtro dto.FiltroDeudas
	if !bindQuery(c, &filtro) {
		return
	}
	resp, err := h.svc.ListarDeudas(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeudasHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerDeuda(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DeudasHandler) Saldo(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.SaldoRestante(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarPagada godoc
// @Summary Marca la deuda como pagada sin registrar abonos
// @Tags deudas
// @Produce json
// @Security SessionCookie
// @Param id path string true "ID de la deuda"
// @Success 200 {object} dto.DeudaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/deudas/{id}/marcar-pagada [post]
func (h *DeudasHandler) MarcarPagada(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.MarcarPagada(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarAbono godoc
// @Summary Aplica un abono a la deuda
// @Tags deudas
// @Accept json
// @Produce json
// @Security SessionCookie
// @Param id path string true "ID de la deuda"
// @Param body body dto.AbonoRequest true "Abono"
// @Success 201 {object} dto.AbonoResponse
// @Failure 409 {object} apierror.APIError "Deuda pagada"
// @Failure 422 {object} apierror.APIError "Monto inválido o mayor al saldo"
// @Router /v1/deudas/{id}/abonos [post]
func (h *DeudasHandler) RegistrarAbono(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AbonoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarAbono(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DeudasHandler) ListarAbonos(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarAbonos(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Estadisticas godoc
// @Summary Totales de la cartera
// @Tags cartera
// @Produce json
// @Security SessionCookie
// @Success 200 {object} dto.EstadisticasCarteraResponse
// @Router /v1/cartera/estadisticas [get]
func (h *DeudasHandler) Estadisticas(c *gin.Context) {
	resp, err := h.svc.Estadisticas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
