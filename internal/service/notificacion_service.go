package service

import (
	"context"
	"fmt"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/clock"
	"refrigas/internal/dto"
	"refrigas/internal/infra"
	"refrigas/internal/metrics"
	"refrigas/internal/model"
	"refrigas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Mailer delivers one multipart message. Implementations must honour ctx.
type Mailer interface {
	Send(ctx context.Context, to, asunto, html, texto string) error
}

type NotificacionService interface {
	// VerificarDeudasVencidas notifies the customer and every active
	// administrator about each overdue debt. A failed send is recorded and
	// counted; it never aborts the batch. Once ctx expires the remaining
	// recipients are recorded as FALLIDA without a send attempt.
	VerificarDeudasVencidas(ctx context.Context) (*dto.ResultadoVerificacion, error)
	EnviarRecordatorio(ctx context.Context, deudaID uuid.UUID) (*dto.NotificacionResponse, error)
	Historial(ctx context.Context, limite int) (*dto.HistorialNotificacionesResponse, error)
}

const (
	historialPorDefecto = 100
	historialMaximo     = 500
)

type notificacionService struct {
	cartera     CarteraService
	deudas      repository.DeudaRepository
	usuarios    repository.UsuarioRepository
	repo        repository.NotificacionRepository
	mailer      Mailer
	plantillas  *infra.Plantillas
	clock       *clock.Clock
	empresa     string
	sendTimeout time.Duration
}

func NewNotificacionService(
	cartera CarteraService,
	deudas repository.DeudaRepository,
	usuarios repository.UsuarioRepository,
	repo repository.NotificacionRepository,
	mailer Mailer,
	plantillas *infra.Plantillas,
	clk *clock.Clock,
	empresa string,
	sendTimeout time.Duration,
) NotificacionService {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &notificacionService{
		cartera:     cartera,
		deudas:      deudas,
		usuarios:    usuarios,
		repo:        repo,
		mailer:      mailer,
		plantillas:  plantillas,
		clock:       clk,
		empresa:     empresa,
		sendTimeout: sendTimeout,
	}
}

// envio is one notification attempt before it is persisted.
type envio struct {
	tipo         string
	destinatario string
	asunto       string
	mensaje      string
	plantilla    string
	datos        infra.ContextoDeuda
	deudaID      *uuid.UUID
	clienteID    *uuid.UUID
}

// ── Verificación ──────────────────────────────────────────────────────────────

func (s *notificacionService) VerificarDeudasVencidas(ctx context.Context) (*dto.ResultadoVerificacion, error) {
	hoy := s.clock.Today()
	vencidas, err := s.cartera.DeudasVencidas(ctx, hoy)
	if err != nil {
		return nil, err
	}
	admins, err := s.usuarios.ListAdministradoresActivos(ctx)
	if err != nil {
		return nil, fmt.Errorf("verificar deudas: administradores: %w", err)
	}

	res := &dto.ResultadoVerificacion{TotalDeudas: len(vencidas)}
	for i := range vencidas {
		// An expired ctx still yields one FALLIDA record per pending recipient.
		d := &vencidas[i]
		if d.Cliente == nil {
			log.Warn().Str("deuda_id", d.ID.String()).Msg("deuda vencida sin cliente")
			continue
		}
		datos := s.contexto(d)
		saldo := "$" + datos.SaldoRestante.StringFixed(2)
		deudaID, clienteID := d.ID, d.ClienteID

		if d.Cliente.Correo != "" {
			n := s.notificar(ctx, envio{
				tipo:         model.NotifDeudaVencidaCliente,
				destinatario: d.Cliente.Correo,
				asunto:       "Recordatorio: Deuda Vencida - " + d.Cliente.Nombre,
				mensaje:      fmt.Sprintf("Deuda de %s vencida desde %s", saldo, datos.FechaVencimiento),
				plantilla:    infra.PlantillaDeudaVencidaCliente,
				datos:        datos,
				deudaID:      &deudaID,
				clienteID:    &clienteID,
			})
			res.NotificacionesClientes++
			contar(res, n)
		}

		for _, admin := range admins {
			n := s.notificar(ctx, envio{
				tipo:         model.NotifDeudaVencidaAdmin,
				destinatario: admin.Email,
				asunto:       "Alerta: Cliente " + d.Cliente.Nombre + " con deuda vencida",
				mensaje:      fmt.Sprintf("Cliente %s tiene deuda vencida de %s", d.Cliente.Nombre, saldo),
				plantilla:    infra.PlantillaDeudaVencidaAdmin,
				datos:        datos,
				deudaID:      &deudaID,
				clienteID:    &clienteID,
			})
			res.NotificacionesAdmins++
			contar(res, n)
		}
	}

	ev := log.Info()
	if ctx.Err() != nil {
		ev = log.Warn().AnErr("ctx", ctx.Err())
	}
	ev.
		Int("total_deudas", res.TotalDeudas).
		Int("enviadas", res.Enviadas).
		Int("fallidas", res.Fallidas).
		Msg("verificación de deudas vencidas completada")
	return res, nil
}

func contar(res *dto.ResultadoVerificacion, n *model.Notificacion) {
	if n.Estado == model.EstadoEnviada {
		res.Enviadas++
	} else {
		res.Fallidas++
	}
}

// ── Recordatorio ──────────────────────────────────────────────────────────────

func (s *notificacionService) EnviarRecordatorio(ctx context.Context, deudaID uuid.UUID) (*dto.NotificacionResponse, error) {
	d, err := s.deudas.FindByID(ctx, deudaID)
	if err != nil {
		return nil, notFound(err, "Deuda no encontrada")
	}
	if d.Pagada {
		return nil, apierror.Conflict("La deuda ya está pagada")
	}
	saldo := SaldoRestante(d)
	if !saldo.IsPositive() {
		return nil, apierror.Conflict("La deuda no tiene saldo pendiente")
	}
	if d.Cliente == nil || d.Cliente.Correo == "" {
		return nil, apierror.Validation("El cliente no tiene correo registrado")
	}

	id, clienteID := d.ID, d.ClienteID
	n := s.notificar(ctx, envio{
		tipo:         model.NotifRecordatorioPago,
		destinatario: d.Cliente.Correo,
		asunto:       "Recordatorio de pago - " + d.Cliente.Nombre,
		mensaje:      fmt.Sprintf("Recordatorio de saldo pendiente de $%s", saldo.StringFixed(2)),
		plantilla:    infra.PlantillaRecordatorioPago,
		datos:        s.contexto(d),
		deudaID:      &id,
		clienteID:    &clienteID,
	})
	resp := toNotificacionResponse(n)
	return &resp, nil
}

// ── Historial ─────────────────────────────────────────────────────────────────

func (s *notificacionService) Historial(ctx context.Context, limite int) (*dto.HistorialNotificacionesResponse, error) {
	if limite <= 0 {
		limite = historialPorDefecto
	}
	if limite > historialMaximo {
		limite = historialMaximo
	}
	ns, err := s.repo.ListRecientes(ctx, limite)
	if err != nil {
		return nil, fmt.Errorf("historial notificaciones: %w", err)
	}
	conteo, err := s.repo.ContarPorEstado(ctx)
	if err != nil {
		return nil, fmt.Errorf("historial notificaciones: conteo: %w", err)
	}

	resp := &dto.HistorialNotificacionesResponse{
		Notificaciones: make([]dto.NotificacionResponse, 0, len(ns)),
		Enviadas:       conteo[model.EstadoEnviada],
		Fallidas:       conteo[model.EstadoFallida],
		Pendientes:     conteo[model.EstadoPendiente],
	}
	for _, c := range conteo {
		resp.Total += c
	}
	for i := range ns {
		resp.Notificaciones = append(resp.Notificaciones, toNotificacionResponse(&ns[i]))
	}
	return resp, nil
}

// ── Envío ─────────────────────────────────────────────────────────────────────

// notificar records the attempt as PENDIENTE, renders and sends it, then
// moves it to ENVIADA or FALLIDA. The returned record always carries the
// final state; errors are logged, never returned.
func (s *notificacionService) notificar(ctx context.Context, e envio) *model.Notificacion {
	n := &model.Notificacion{
		Tipo:              e.tipo,
		DestinatarioEmail: e.destinatario,
		Asunto:            e.asunto,
		Mensaje:           e.mensaje,
		DeudaID:           e.deudaID,
		ClienteID:         e.clienteID,
		Estado:            model.EstadoPendiente,
	}
	logger := log.With().
		Str("tipo", e.tipo).
		Str("destinatario", e.destinatario).
		Logger()

	// Bookkeeping outlives ctx: only the send is bounded by it.
	store := context.WithoutCancel(ctx)
	if err := s.repo.Create(store, n); err != nil {
		logger.Error().Err(err).Msg("no se pudo registrar la notificación")
		n.Estado = model.EstadoFallida
		n.ErrorMensaje = err.Error()
		metrics.NotificacionesTotal.WithLabelValues(e.tipo, n.Estado).Inc()
		return n
	}

	err := s.enviar(ctx, e)
	if err != nil {
		n.Estado = model.EstadoFallida
		n.ErrorMensaje = err.Error()
		logger.Warn().Err(err).Str("notificacion_id", n.ID.String()).Msg("envío de notificación fallido")
	} else {
		ahora := s.clock.Now()
		n.Estado = model.EstadoEnviada
		n.FechaEnvio = &ahora
	}

	if uerr := s.repo.UpdateEstado(store, n); uerr != nil {
		logger.Error().Err(uerr).Str("notificacion_id", n.ID.String()).Msg("no se pudo actualizar el estado de la notificación")
	}
	metrics.NotificacionesTotal.WithLabelValues(e.tipo, n.Estado).Inc()
	return n
}

func (s *notificacionService) enviar(ctx context.Context, e envio) error {
	html, texto, err := s.plantillas.Render(e.plantilla, e.datos)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()
	if err := sendCtx.Err(); err != nil {
		return apierror.Transport("Tiempo de envío agotado", err)
	}
	if err := s.mailer.Send(sendCtx, e.destinatario, e.asunto, html, texto); err != nil {
		return apierror.Transport("No se pudo enviar el correo", err)
	}
	return nil
}

func (s *notificacionService) contexto(d *model.Deuda) infra.ContextoDeuda {
	hoy := s.clock.Today()
	c := infra.ContextoDeuda{
		Empresa:       s.empresa,
		Descripcion:   d.Descripcion,
		MontoDeuda:    d.Monto,
		SaldoRestante: SaldoRestante(d),
		DiasVencidos:  DiasVencidos(d, hoy),
	}
	if c.SaldoRestante.IsNegative() {
		c.SaldoRestante = decimal.Zero
	}
	if d.FechaVencimiento != nil {
		c.FechaVencimiento = clock.FormatDate(*d.FechaVencimiento)
	}
	if d.Cliente != nil {
		c.ClienteNombre = d.Cliente.Nombre
		c.ClienteCorreo = d.Cliente.Correo
		c.ClienteTelefono = d.Cliente.Telefono
	}
	return c
}

func toNotificacionResponse(n *model.Notificacion) dto.NotificacionResponse {
	resp := dto.NotificacionResponse{
		ID:                n.ID.String(),
		Tipo:              n.Tipo,
		DestinatarioEmail: n.DestinatarioEmail,
		Asunto:            n.Asunto,
		Mensaje:           n.Mensaje,
		Estado:            n.Estado,
		CreatedAt:         n.CreatedAt,
		FechaEnvio:        n.FechaEnvio,
		ErrorMensaje:      n.ErrorMensaje,
	}
	if n.DeudaID != nil {
		s := n.DeudaID.String()
		resp.DeudaID = &s
	}
	if n.ClienteID != nil {
		s := n.ClienteID.String()
		resp.ClienteID = &s
	}
	return resp
}
