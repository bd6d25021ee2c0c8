package dto

import "time"

// ── Sesión ───────────────────────────────────────────────────────────────────

// Identidad is what the identity provider vouches for after a login.
type Identidad struct {
	Subject string
	Email   string
	Nombre  string
}

type SesionResponse struct {
	UsuarioID string    `json:"usuario_id"`
	Email     string    `json:"email"`
	Nombre    string    `json:"nombre"`
	Rol       string    `json:"rol"`
	ExpiraEn  time.Time `json:"expira_en"`
}

// ── Usuarios autorizados ─────────────────────────────────────────────────────

type CrearUsuarioRequest struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Nombre string `json:"nombre" validate:"max=100"`
	Rol    string `json:"rol" validate:"required,oneof=administrador cajero"`
}

type ActualizarUsuarioRequest struct {
	Nombre *string `json:"nombre" validate:"omitempty,max=100"`
	Rol    string  `json:"rol" validate:"omitempty,oneof=administrador cajero"`
}

type UsuarioResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nombre    string    `json:"nombre"`
	Rol       string    `json:"rol"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
}
