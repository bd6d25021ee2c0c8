package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cliente is a customer that can carry debts. Deleting it removes its debts,
// their payments and every notification that references them.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre    string    `gorm:"type:varchar(100);not null"`
	Correo    string    `gorm:"type:varchar(254);not null;uniqueIndex"`
	Telefono  string    `gorm:"type:varchar(15)"`
	Direccion string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Deudas []Deuda `gorm:"foreignKey:ClienteID"`
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
