package handler

import (
	"fmt"
	"net/http"

	"refrigas/internal/dto"
	"refrigas/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

func descargar(c *gin.Context, a *dto.Archivo) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Nombre))
	c.Data(http.StatusOK, a.ContentType, a.Contenido)
}

// General godoc
// @Summary Reporte general de deudas (xlsx)
// @Tags reportes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security SessionCookie
// @Param fecha_inicio query string false "AAAA-MM-DD"
// @Param fecha_fin query string false "AAAA-MM-DD"
// @Param cliente_id query string false "ID del cliente"
// @Param incluir_pagadas query bool false "Incluye deudas pagadas"
// @Success 200 {file} file
// @Router /v1/reportes/general [get]
func (h *ReportesHandler) General(c *gin.Context) {
	var filtro dto.FiltroReporteGeneral
	if !bindQuery(c, &filtro) {
		return
	}
	a, err := h.svc.General(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	descargar(c, a)
}

func (h *ReportesHandler) Clientes(c *gin.Context) {
	a, err := h.svc.Clientes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	descargar(c, a)
}

func (h *ReportesHandler) Abonos(c *gin.Context) {
	var filtro dto.FiltroReporteAbonos
	if !bindQuery(c, &filtro) {
		return
	}
	a, err := h.svc.Abonos(c.Request.Context(), filtro)
	if err != nil {
		respondError(c, err)
		return
	}
	descargar(c, a)
}

// CierrePDF godoc
// @Summary PDF del cierre de caja
// @Tags caja
// @Produce application/pdf
// @Security SessionCookie
// @Param id path string true "ID del cierre"
// @Success 200 {file} file
// @Failure 404 {object} apierror.APIError
// @Router /v1/caja/cierres/{id}/pdf [get]
func (h *ReportesHandler) CierrePDF(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.CierrePDF(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	descargar(c, a)
}
