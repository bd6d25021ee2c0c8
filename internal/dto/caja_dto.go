package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransaccionRequest struct {
	Tipo          string          `json:"tipo" validate:"required,oneof=VF VNF IO"`
	Monto         decimal.Decimal `json:"monto" validate:"required"`
	Descripcion   string          `json:"descripcion" validate:"required,max=200"`
	NumeroFactura *string         `json:"numero_factura" validate:"omitempty,max=50"`
	// Fecha defaults to today in the business time zone.
	Fecha *string `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
}

type TransaccionResponse struct {
	ID            string          `json:"id"`
	Fecha         string          `json:"fecha"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	Descripcion   string          `json:"descripcion"`
	NumeroFactura *string         `json:"numero_factura,omitempty"`
	UsuarioID     *string         `json:"usuario_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type ResumenDiarioResponse struct {
	Fecha                   string                `json:"fecha"`
	TotalVentasFacturadas   decimal.Decimal       `json:"total_ventas_facturadas"`
	TotalVentasNoFacturadas decimal.Decimal       `json:"total_ventas_no_facturadas"`
	TotalOtrosIngresos      decimal.Decimal       `json:"total_otros_ingresos"`
	TotalGeneral            decimal.Decimal       `json:"total_general"`
	CantidadTransacciones   int                   `json:"cantidad_transacciones"`
	Transacciones           []TransaccionResponse `json:"transacciones"`
	CierreID                *string               `json:"cierre_id"`
	Cerrado                 bool                  `json:"cerrado"`
}

type CerrarCajaRequest struct {
	TotalFisico   *decimal.Decimal `json:"total_fisico"`
	Observaciones string           `json:"observaciones" validate:"max=1000"`
}

type CierreCajaResponse struct {
	ID                      string           `json:"id"`
	Fecha                   string           `json:"fecha"`
	TotalVentasFacturadas   decimal.Decimal  `json:"total_ventas_facturadas"`
	TotalVentasNoFacturadas decimal.Decimal  `json:"total_ventas_no_facturadas"`
	TotalOtrosIngresos      decimal.Decimal  `json:"total_otros_ingresos"`
	TotalCalculado          decimal.Decimal  `json:"total_calculado"`
	TotalFisico             *decimal.Decimal `json:"total_fisico"`
	Diferencia              decimal.Decimal  `json:"diferencia"`
	Cerrado                 bool             `json:"cerrado"`
	UsuarioCierreID         *string          `json:"usuario_cierre_id,omitempty"`
	FechaCierre             *time.Time       `json:"fecha_cierre,omitempty"`
	Observaciones           string           `json:"observaciones"`
}

type ListaCierresResponse struct {
	Data  []CierreCajaResponse `json:"data"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int64                `json:"total"`
}
