package dto

import "time"

// ResultadoVerificacion summarizes one overdue-debt scan.
type ResultadoVerificacion struct {
	TotalDeudas            int `json:"total_deudas"`
	NotificacionesClientes int `json:"notificaciones_clientes"`
	NotificacionesAdmins   int `json:"notificaciones_admins"`
	Enviadas               int `json:"enviadas"`
	Fallidas               int `json:"fallidas"`
}

type NotificacionResponse struct {
	ID                string     `json:"id"`
	Tipo              string     `json:"tipo"`
	DestinatarioEmail string     `json:"destinatario_email"`
	Asunto            string     `json:"asunto"`
	Mensaje           string     `json:"mensaje"`
	DeudaID           *string    `json:"deuda_id,omitempty"`
	ClienteID         *string    `json:"cliente_id,omitempty"`
	Estado            string     `json:"estado"`
	CreatedAt         time.Time  `json:"created_at"`
	FechaEnvio        *time.Time `json:"fecha_envio,omitempty"`
	ErrorMensaje      string     `json:"error_mensaje,omitempty"`
}

type HistorialNotificacionesResponse struct {
	Notificaciones []NotificacionResponse `json:"notificaciones"`
	Total          int64                  `json:"total"`
	Enviadas       int64                  `json:"enviadas"`
	Fallidas       int64                  `json:"fallidas"`
	Pendientes     int64                  `json:"pendientes"`
}
