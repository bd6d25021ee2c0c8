package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RolAdministrador = "administrador"
	RolCajero        = "cajero"
)

// UsuarioAutorizado is the allow-list entry checked after an identity
// provider login. Administrators also receive overdue-debt alerts.
type UsuarioAutorizado struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(254);not null;uniqueIndex"`
	Nombre    string    `gorm:"type:varchar(100)"`
	Rol       string    `gorm:"type:varchar(20);not null"`
	Activo    bool      `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UsuarioAutorizado) TableName() string { return "usuarios_autorizados" }

func (u *UsuarioAutorizado) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
