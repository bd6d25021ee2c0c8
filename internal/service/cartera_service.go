package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"refrigas/internal/apierror"
	"refrigas/internal/clock"
	"refrigas/internal/dto"
	"refrigas/internal/metrics"
	"refrigas/internal/model"
	"refrigas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CarteraService interface {
	CrearCliente(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	ListarClientes(ctx context.Context, busqueda string) ([]dto.ClienteResponse, error)
	ObtenerCliente(ctx context.Context, id uuid.UUID) (*dto.ClienteDetalleResponse, error)
	ActualizarCliente(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error)
	EliminarCliente(ctx context.Context, id uuid.UUID) error

	CrearDeuda(ctx context.Context, req dto.CrearDeudaRequest) (*dto.DeudaResponse, error)
	ListarDeudas(ctx context.Context, filtro dto.FiltroDeudas) (*dto.ListadoDeudasResponse, error)
	ObtenerDeuda(ctx context.Context, id uuid.UUID) (*dto.DeudaResponse, error)
	SaldoRestante(ctx context.Context, id uuid.UUID) (*dto.SaldoResponse, error)
	MarcarPagada(ctx context.Context, id uuid.UUID) (*dto.DeudaResponse, error)

	RegistrarAbono(ctx context.Context, deudaID uuid.UUID, req dto.AbonoRequest) (*dto.AbonoResponse, error)
	ListarAbonos(ctx context.Context, deudaID uuid.UUID) ([]dto.AbonoResponse, error)

	Estadisticas(ctx context.Context) (*dto.EstadisticasCarteraResponse, error)
	// DeudasVencidas returns every debt that is overdue as of hoy.
	DeudasVencidas(ctx context.Context, hoy datatypes.Date) ([]model.Deuda, error)
}

type carteraService struct {
	clientes repository.ClienteRepository
	deudas   repository.DeudaRepository
	clock    *clock.Clock
}

func NewCarteraService(clientes repository.ClienteRepository, deudas repository.DeudaRepository, clk *clock.Clock) CarteraService {
	return &carteraService{clientes: clientes, deudas: deudas, clock: clk}
}

// ── Clientes ──────────────────────────────────────────────────────────────────

func (s *carteraService) CrearCliente(ctx context.Context, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c := &model.Cliente{
		Nombre:    strings.TrimSpace(req.Nombre),
		Correo:    strings.ToLower(strings.TrimSpace(req.Correo)),
		Telefono:  strings.TrimSpace(req.Telefono),
		Direccion: strings.TrimSpace(req.Direccion),
	}
	if err := s.clientes.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("Ya existe un cliente con ese correo")
		}
		return nil, fmt.Errorf("crear cliente: %w", err)
	}
	resp := toClienteResponse(c)
	return &resp, nil
}

func (s *carteraService) ListarClientes(ctx context.Context, busqueda string) ([]dto.ClienteResponse, error) {
	clientes, err := s.clientes.List(ctx, strings.TrimSpace(busqueda))
	if err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}
	out := make([]dto.ClienteResponse, len(clientes))
	for i := range clientes {
		out[i] = toClienteResponse(&clientes[i])
	}
	return out, nil
}

func (s *carteraService) ObtenerCliente(ctx context.Context, id uuid.UUID) (*dto.ClienteDetalleResponse, error) {
	c, err := s.clientes.FindConDeudas(ctx, id)
	if err != nil {
		return nil, notFound(err, "Cliente no encontrado")
	}
	hoy := s.clock.Today()
	resp := &dto.ClienteDetalleResponse{
		ClienteResponse: toClienteResponse(c),
		Deudas:          make([]dto.DeudaResponse, 0, len(c.Deudas)),
		TotalAdeudado:   decimal.Zero,
		TotalAbonado:    decimal.Zero,
		SaldoPendiente:  decimal.Zero,
	}
	for i := range c.Deudas {
		d := &c.Deudas[i]
		d.Cliente = c
		resp.Deudas = append(resp.Deudas, toDeudaResponse(d, hoy))
		resp.TotalAdeudado = resp.TotalAdeudado.Add(d.Monto)
		resp.TotalAbonado = resp.TotalAbonado.Add(TotalAbonado(d))
		if !d.Pagada {
			resp.SaldoPendiente = resp.SaldoPendiente.Add(SaldoRestante(d))
		}
	}
	return resp, nil
}

func (s *carteraService) ActualizarCliente(ctx context.Context, id uuid.UUID, req dto.ClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.clientes.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Cliente no encontrado")
	}
	c.Nombre = strings.TrimSpace(req.Nombre)
	c.Correo = strings.ToLower(strings.TrimSpace(req.Correo))
	c.Telefono = strings.TrimSpace(req.Telefono)
	c.Direccion = strings.TrimSpace(req.Direccion)
	if err := s.clientes.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("Ya existe un cliente con ese correo")
		}
		return nil, fmt.Errorf("actualizar cliente: %w", err)
	}
	resp := toClienteResponse(c)
	return &resp, nil
}

func (s *carteraService) EliminarCliente(ctx context.Context, id uuid.UUID) error {
	if err := s.clientes.DeleteCascade(ctx, id); err != nil {
		return notFound(err, "Cliente no encontrado")
	}
	log.Info().Str("cliente_id", id.String()).Msg("cliente eliminado con sus deudas")
	return nil
}

// ── Deudas ────────────────────────────────────────────────────────────────────

func (s *carteraService) CrearDeuda(ctx context.Context, req dto.CrearDeudaRequest) (*dto.DeudaResponse, error) {
	if err := validarMonto(req.Monto, "El monto de la deuda debe ser mayor a cero."); err != nil {
		return nil, err
	}
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.Validation("cliente_id inválido")
	}
	cliente, err := s.clientes.FindByID(ctx, clienteID)
	if err != nil {
		return nil, notFound(err, "Cliente no encontrado")
	}

	d := &model.Deuda{
		ClienteID:   clienteID,
		Monto:       req.Monto,
		Fecha:       s.clock.Today(),
		Descripcion: strings.TrimSpace(req.Descripcion),
	}
	if req.FechaVencimiento != nil && *req.FechaVencimiento != "" {
		venc, err := clock.ParseDate(*req.FechaVencimiento)
		if err != nil {
			return nil, apierror.Validation("fecha_vencimiento debe tener formato AAAA-MM-DD")
		}
		d.FechaVencimiento = &venc
	}
	if err := s.deudas.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("crear deuda: %w", err)
	}
	d.Cliente = cliente
	resp := toDeudaResponse(d, s.clock.Today())
	return &resp, nil
}

// ListarDeudas returns the filtered listing plus totals computed over it.
func (s *carteraService) ListarDeudas(ctx context.Context, filtro dto.FiltroDeudas) (*dto.ListadoDeudasResponse, error) {
	f := repository.DeudaFiltro{}
	if filtro.ClienteID != "" {
		id, err := uuid.Parse(filtro.ClienteID)
		if err != nil {
			return nil, apierror.Validation("cliente_id inválido")
		}
		f.ClienteID = &id
	}
	switch filtro.Estado {
	case "pagada":
		t := true
		f.Pagada = &t
	case "pendiente", "vencida":
		fl := false
		f.Pagada = &fl
	}

	deudas, err := s.deudas.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listar deudas: %w", err)
	}

	hoy := s.clock.Today()
	resp := &dto.ListadoDeudasResponse{
		Deudas:              make([]dto.DeudaResponse, 0, len(deudas)),
		TotalDeudas:         decimal.Zero,
		TotalAbonado:        decimal.Zero,
		SaldoPendienteTotal: decimal.Zero,
	}
	for i := range deudas {
		d := &deudas[i]
		vencida := EstaVencida(d, hoy)
		if filtro.Estado == "vencida" && !vencida {
			continue
		}
		if vencida {
			resp.DeudasVencidas++
		}
		abonado := TotalAbonado(d)
		resp.TotalDeudas = resp.TotalDeudas.Add(d.Monto)
		resp.TotalAbonado = resp.TotalAbonado.Add(abonado)
		resp.Deudas = append(resp.Deudas, toDeudaResponse(d, hoy))
	}
	resp.SaldoPendienteTotal = resp.TotalDeudas.Sub(resp.TotalAbonado)
	return resp, nil
}

func (s *carteraService) ObtenerDeuda(ctx context.Context, id uuid.UUID) (*dto.DeudaResponse, error) {
	d, err := s.deudas.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Deuda no encontrada")
	}
	resp := toDeudaResponse(d, s.clock.Today())
	return &resp, nil
}

func (s *carteraService) SaldoRestante(ctx context.Context, id uuid.UUID) (*dto.SaldoResponse, error) {
	d, err := s.deudas.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Deuda no encontrada")
	}
	return &dto.SaldoResponse{
		DeudaID:       d.ID.String(),
		Monto:         d.Monto,
		TotalAbonado:  TotalAbonado(d),
		SaldoRestante: SaldoRestante(d),
		Pagada:        d.Pagada,
		EstaVencida:   EstaVencida(d, s.clock.Today()),
	}, nil
}

// MarcarPagada is the manual override: it flags the debt paid regardless of
// its balance. Calling it on a paid debt is a no-op.
func (s *carteraService) MarcarPagada(ctx context.Context, id uuid.UUID) (*dto.DeudaResponse, error) {
	if err := s.deudas.SetPagada(ctx, id); err != nil {
		return nil, notFound(err, "Deuda no encontrada")
	}
	log.Info().Str("deuda_id", id.String()).Msg("deuda marcada como pagada manualmente")
	return s.ObtenerDeuda(ctx, id)
}

// ── Abonos ────────────────────────────────────────────────────────────────────
// The balance check and the insert run under a row lock on the debt, so two
// concurrent payments can never overdraw it.

func (s *carteraService) RegistrarAbono(ctx context.Context, deudaID uuid.UUID, req dto.AbonoRequest) (*dto.AbonoResponse, error) {
	if err := validarMonto(req.Monto, "El monto del abono debe ser mayor a cero."); err != nil {
		return nil, err
	}

	var (
		abono *model.Abono
		saldo decimal.Decimal
	)
	err := runTx(ctx, s.deudas.DB(), func(tx *gorm.DB) error {
		d, err := s.deudas.FindForUpdateTx(tx, deudaID)
		if err != nil {
			return notFound(err, "Deuda no encontrada")
		}
		if d.Pagada {
			return apierror.Conflict("La deuda ya está pagada")
		}
		restante := SaldoRestante(d)
		if req.Monto.GreaterThan(restante) {
			return apierror.Validation(fmt.Sprintf(
				"El abono no puede ser mayor al saldo restante ($%s)", restante.StringFixed(2)))
		}

		abono = &model.Abono{
			DeudaID:     d.ID,
			Monto:       req.Monto,
			Fecha:       s.clock.Today(),
			Descripcion: strings.TrimSpace(req.Descripcion),
		}
		if err := s.deudas.CreateAbonoTx(tx, abono); err != nil {
			return fmt.Errorf("crear abono: %w", err)
		}

		saldo = restante.Sub(req.Monto)
		if !saldo.IsPositive() {
			if err := s.deudas.SetPagadaTx(tx, d.ID, true); err != nil {
				return fmt.Errorf("marcar pagada: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AbonosRegistrados.Inc()
	resp := toAbonoResponse(abono)
	resp.SaldoRestante = saldo
	resp.DeudaPagada = !saldo.IsPositive()
	return &resp, nil
}

func (s *carteraService) ListarAbonos(ctx context.Context, deudaID uuid.UUID) ([]dto.AbonoResponse, error) {
	d, err := s.deudas.FindByID(ctx, deudaID)
	if err != nil {
		return nil, notFound(err, "Deuda no encontrada")
	}
	// Running balance after each payment, oldest first.
	saldo := d.Monto
	out := make([]dto.AbonoResponse, len(d.Abonos))
	for i := range d.Abonos {
		saldo = saldo.Sub(d.Abonos[i].Monto)
		out[i] = toAbonoResponse(&d.Abonos[i])
		out[i].SaldoRestante = saldo
		out[i].DeudaPagada = d.Pagada
	}
	return out, nil
}

// ── Estadísticas ──────────────────────────────────────────────────────────────

func (s *carteraService) Estadisticas(ctx context.Context) (*dto.EstadisticasCarteraResponse, error) {
	deudas, err := s.deudas.List(ctx, repository.DeudaFiltro{})
	if err != nil {
		return nil, fmt.Errorf("estadisticas: %w", err)
	}
	totalClientes, err := s.clientes.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("estadisticas: %w", err)
	}

	hoy := s.clock.Today()
	resp := &dto.EstadisticasCarteraResponse{
		TotalDeudas:   decimal.Zero,
		TotalAbonado:  decimal.Zero,
		TotalClientes: totalClientes,
	}
	for i := range deudas {
		resp.TotalDeudas = resp.TotalDeudas.Add(deudas[i].Monto)
		resp.TotalAbonado = resp.TotalAbonado.Add(TotalAbonado(&deudas[i]))
		if EstaVencida(&deudas[i], hoy) {
			resp.DeudasVencidas++
		}
	}
	resp.SaldoPendiente = resp.TotalDeudas.Sub(resp.TotalAbonado)
	return resp, nil
}

func (s *carteraService) DeudasVencidas(ctx context.Context, hoy datatypes.Date) ([]model.Deuda, error) {
	candidatas, err := s.deudas.ListNoPagadas(ctx)
	if err != nil {
		return nil, fmt.Errorf("deudas vencidas: %w", err)
	}
	var vencidas []model.Deuda
	for i := range candidatas {
		if EstaVencida(&candidatas[i], hoy) {
			vencidas = append(vencidas, candidatas[i])
		}
	}
	return vencidas, nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func toClienteResponse(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Correo:    c.Correo,
		Telefono:  c.Telefono,
		Direccion: c.Direccion,
		CreatedAt: c.CreatedAt,
	}
}

func toDeudaResponse(d *model.Deuda, hoy datatypes.Date) dto.DeudaResponse {
	resp := dto.DeudaResponse{
		ID:               d.ID.String(),
		ClienteID:        d.ClienteID.String(),
		Monto:            d.Monto,
		TotalAbonado:     TotalAbonado(d),
		SaldoRestante:    SaldoRestante(d),
		Fecha:            clock.FormatDate(d.Fecha),
		FechaVencimiento: formatFechaPtr(d.FechaVencimiento),
		Descripcion:      d.Descripcion,
		Pagada:           d.Pagada,
		EstaVencida:      EstaVencida(d, hoy),
		DiasVencidos:     DiasVencidos(d, hoy),
	}
	if d.Cliente != nil {
		resp.ClienteNombre = d.Cliente.Nombre
	}
	return resp
}

func toAbonoResponse(a *model.Abono) dto.AbonoResponse {
	return dto.AbonoResponse{
		ID:          a.ID.String(),
		DeudaID:     a.DeudaID.String(),
		Monto:       a.Monto,
		Fecha:       clock.FormatDate(a.Fecha),
		Descripcion: a.Descripcion,
	}
}
