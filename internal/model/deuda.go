package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deuda is an amount a customer owes. Fecha and Monto never change after
// creation; Pagada is only flipped by a payment that settles the balance or
// by the manual mark-paid override.
type Deuda struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ClienteID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Monto            decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fecha            datatypes.Date  `gorm:"not null;index"`
	FechaVencimiento *datatypes.Date
	Descripcion      string `gorm:"type:text"`
	Pagada           bool   `gorm:"not null"`
	CreatedAt        time.Time

	Cliente *Cliente `gorm:"foreignKey:ClienteID"`
	Abonos  []Abono  `gorm:"foreignKey:DeudaID"`
}

func (Deuda) TableName() string { return "deudas" }

func (d *Deuda) BeforeCreate(_ *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Abono is a payment against one debt. Payments are append-only.
type Abono struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DeudaID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Fecha       datatypes.Date  `gorm:"not null;index"`
	Descripcion string          `gorm:"type:text"`
	CreatedAt   time.Time

	Deuda *Deuda `gorm:"foreignKey:DeudaID"`
}

func (Abono) TableName() string { return "abonos" }

func (a *Abono) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
