package dto

// FiltroReporteGeneral is bound from the query string of the general report.
type FiltroReporteGeneral struct {
	FechaInicio    string `form:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
	FechaFin       string `form:"fecha_fin" validate:"omitempty,datetime=2006-01-02"`
	ClienteID      string `form:"cliente_id" validate:"omitempty,uuid"`
	IncluirPagadas bool   `form:"incluir_pagadas"`
}

type FiltroReporteAbonos struct {
	FechaInicio string `form:"fecha_inicio" validate:"omitempty,datetime=2006-01-02"`
	FechaFin    string `form:"fecha_fin" validate:"omitempty,datetime=2006-01-02"`
}

// Archivo is a generated document ready to be streamed as a download.
type Archivo struct {
	Nombre      string
	ContentType string
	Contenido   []byte
}
