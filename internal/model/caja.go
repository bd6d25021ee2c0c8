package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tipos de transacción de caja.
const (
	TipoVentaFacturada   = "VF"
	TipoVentaNoFacturada = "VNF"
	TipoOtroIngreso      = "IO"
)

// Transaccion is one cash movement. Transactions are never modified or
// deleted; Fecha is the civil day the movement belongs to.
type Transaccion struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Fecha         datatypes.Date  `gorm:"not null;index"`
	Tipo          string          `gorm:"type:varchar(3);not null"`
	Monto         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion   string          `gorm:"type:varchar(200);not null"`
	NumeroFactura *string         `gorm:"type:varchar(50)"`
	UsuarioID     *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time
}

func (Transaccion) TableName() string { return "transacciones" }

func (t *Transaccion) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// CierreCaja is the daily close for one civil date. Once Cerrado it is
// frozen: totals are not recomputed and it cannot be reopened.
type CierreCaja struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Fecha                   datatypes.Date  `gorm:"not null;uniqueIndex"`
	TotalVentasFacturadas   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalVentasNoFacturadas decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalOtrosIngresos      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalCalculado          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// TotalFisico is the counted cash; nil until the close is finalized.
	TotalFisico     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Diferencia      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Cerrado         bool             `gorm:"not null"`
	UsuarioCierreID *uuid.UUID       `gorm:"type:uuid"`
	FechaCierre     *time.Time
	Observaciones   string `gorm:"type:text"`
	CreatedAt       time.Time
}

func (CierreCaja) TableName() string { return "cierres_caja" }

func (c *CierreCaja) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
