package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	NotifDeudaVencidaCliente = "DEUDA_VENCIDA_CLIENTE"
	NotifDeudaVencidaAdmin   = "DEUDA_VENCIDA_ADMIN"
	NotifRecordatorioPago    = "RECORDATORIO_PAGO"
)

const (
	EstadoPendiente = "PENDIENTE"
	EstadoEnviada   = "ENVIADA"
	EstadoFallida   = "FALLIDA"
)

// Notificacion records one email attempt. It starts PENDIENTE and moves to
// ENVIADA or FALLIDA exactly once.
type Notificacion struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Tipo              string     `gorm:"type:varchar(30);not null"`
	DestinatarioEmail string     `gorm:"type:varchar(254);not null"`
	Asunto            string     `gorm:"type:varchar(200);not null"`
	Mensaje           string     `gorm:"type:text;not null"`
	DeudaID           *uuid.UUID `gorm:"type:uuid;index"`
	ClienteID         *uuid.UUID `gorm:"type:uuid;index"`
	Estado            string     `gorm:"type:varchar(20);not null;index"`
	CreatedAt         time.Time  `gorm:"index"`
	FechaEnvio        *time.Time
	ErrorMensaje      string `gorm:"type:text"`
}

func (Notificacion) TableName() string { return "notificaciones" }

func (n *Notificacion) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
