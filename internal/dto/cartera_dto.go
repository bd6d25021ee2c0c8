package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Clientes ─────────────────────────────────────────────────────────────────

type ClienteRequest struct {
	Nombre    string `json:"nombre" validate:"required,max=100"`
	Correo    string `json:"correo" validate:"required,email,max=254"`
	Telefono  string `json:"telefono" validate:"max=15"`
	Direccion string `json:"direccion" validate:"max=500"`
}

type ClienteResponse struct {
	ID        string    `json:"id"`
	Nombre    string    `json:"nombre"`
	Correo    string    `json:"correo"`
	Telefono  string    `json:"telefono"`
	Direccion string    `json:"direccion"`
	CreatedAt time.Time `json:"created_at"`
}

type ClienteDetalleResponse struct {
	ClienteResponse
	Deudas         []DeudaResponse `json:"deudas"`
	TotalAdeudado  decimal.Decimal `json:"total_adeudado"`
	TotalAbonado   decimal.Decimal `json:"total_abonado"`
	SaldoPendiente decimal.Decimal `json:"saldo_pendiente"`
}

// ── Deudas ───────────────────────────────────────────────────────────────────

type CrearDeudaRequest struct {
	ClienteID        string          `json:"cliente_id" validate:"required,uuid"`
	Monto            decimal.Decimal `json:"monto" validate:"required"`
	FechaVencimiento *string         `json:"fecha_vencimiento" validate:"omitempty,datetime=2006-01-02"`
	Descripcion      string          `json:"descripcion" validate:"max=500"`
}

type DeudaResponse struct {
	ID               string          `json:"id"`
	ClienteID        string          `json:"cliente_id"`
	ClienteNombre    string          `json:"cliente_nombre,omitempty"`
	Monto            decimal.Decimal `json:"monto"`
	TotalAbonado     decimal.Decimal `json:"total_abonado"`
	SaldoRestante    decimal.Decimal `json:"saldo_restante"`
	Fecha            string          `json:"fecha"`
	FechaVencimiento *string         `json:"fecha_vencimiento"`
	Descripcion      string          `json:"descripcion"`
	Pagada           bool            `json:"pagada"`
	EstaVencida      bool            `json:"esta_vencida"`
	DiasVencidos     int             `json:"dias_vencidos,omitempty"`
}

// FiltroDeudas is bound from the query string of GET /v1/deudas.
type FiltroDeudas struct {
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	// Estado: pendiente | pagada | vencida
	Estado string `form:"estado" validate:"omitempty,oneof=pendiente pagada vencida"`
}

type ListadoDeudasResponse struct {
	Deudas              []DeudaResponse `json:"deudas"`
	TotalDeudas         decimal.Decimal `json:"total_deudas"`
	TotalAbonado        decimal.Decimal `json:"total_abonado"`
	SaldoPendienteTotal decimal.Decimal `json:"saldo_pendiente_total"`
	DeudasVencidas      int             `json:"deudas_vencidas"`
}

type SaldoResponse struct {
	DeudaID       string          `json:"deuda_id"`
	Monto         decimal.Decimal `json:"monto"`
	TotalAbonado  decimal.Decimal `json:"total_abonado"`
	SaldoRestante decimal.Decimal `json:"saldo_restante"`
	Pagada        bool            `json:"pagada"`
	EstaVencida   bool            `json:"esta_vencida"`
}

// ── Abonos ───────────────────────────────────────────────────────────────────

type AbonoRequest struct {
	Monto       decimal.Decimal `json:"monto" validate:"required"`
	Descripcion string          `json:"descripcion" validate:"max=500"`
}

type AbonoResponse struct {
	ID            string          `json:"id"`
	DeudaID       string          `json:"deuda_id"`
	Monto         decimal.Decimal `json:"monto"`
	Fecha         string          `json:"fecha"`
	Descripcion   string          `json:"descripcion"`
	SaldoRestante decimal.Decimal `json:"saldo_restante"`
	DeudaPagada   bool            `json:"deuda_pagada"`
}

// ── Estadísticas ─────────────────────────────────────────────────────────────

type EstadisticasCarteraResponse struct {
	TotalDeudas    decimal.Decimal `json:"total_deudas"`
	TotalAbonado   decimal.Decimal `json:"total_abonado"`
	SaldoPendiente decimal.Decimal `json:"saldo_pendiente"`
	DeudasVencidas int             `json:"deudas_vencidas"`
	TotalClientes  int64           `json:"total_clientes"`
}
