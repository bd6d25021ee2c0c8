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

type CajaService interface {
	RegistrarTransaccion(ctx context.Context, usuarioID *uuid.UUID, req dto.TransaccionRequest) (*dto.TransaccionResponse, error)
	ListarTransacciones(ctx context.Context, fecha *datatypes.Date) ([]dto.TransaccionResponse, error)
	ResumenDiario(ctx context.Context, fecha *datatypes.Date) (*dto.ResumenDiarioResponse, error)

	CrearCierreHoy(ctx context.Context) (*dto.CierreCajaResponse, error)
	ObtenerCierre(ctx context.Context, id uuid.UUID) (*dto.CierreCajaResponse, error)
	ListarCierres(ctx context.Context, page, limit int) (*dto.ListaCierresResponse, error)
	Recalcular(ctx context.Context, id uuid.UUID) (*dto.CierreCajaResponse, error)
	Cerrar(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error)
}

type cajaService struct {
	repo  repository.CajaRepository
	clock *clock.Clock
}

func NewCajaService(repo repository.CajaRepository, clk *clock.Clock) CajaService {
	return &cajaService{repo: repo, clock: clk}
}

// ── Transacciones ─────────────────────────────────────────────────────────────
// Append-only. A day whose close is already finalized accepts no new movements.

func (s *cajaService) RegistrarTransaccion(ctx context.Context, usuarioID *uuid.UUID, req dto.TransaccionRequest) (*dto.TransaccionResponse, error) {
	switch req.Tipo {
	case model.TipoVentaFacturada, model.TipoVentaNoFacturada, model.TipoOtroIngreso:
	default:
		return nil, apierror.Validation("Tipo de transacción inválido")
	}
	if err := validarMonto(req.Monto, "El monto debe ser mayor a cero."); err != nil {
		return nil, err
	}

	fecha := s.clock.Today()
	if req.Fecha != nil && *req.Fecha != "" {
		f, err := clock.ParseDate(*req.Fecha)
		if err != nil {
			return nil, apierror.Validation("fecha debe tener formato AAAA-MM-DD")
		}
		fecha = f
	}

	t := &model.Transaccion{
		Fecha:         fecha,
		Tipo:          req.Tipo,
		Monto:         req.Monto,
		Descripcion:   strings.TrimSpace(req.Descripcion),
		NumeroFactura: req.NumeroFactura,
		UsuarioID:     usuarioID,
	}
	// The close row stays share-locked until the insert commits, so Cerrar
	// either sees this transaction or runs first and rejects it.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		cierre, err := s.repo.FindCierreByFechaForShareTx(tx, fecha)
		switch {
		case err == nil && cierre.Cerrado:
			return apierror.Conflict(fmt.Sprintf("La caja del %s ya está cerrada", clock.FormatDate(fecha)))
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("buscar cierre: %w", err)
		}
		if err := s.repo.CreateTransaccionTx(tx, t); err != nil {
			return fmt.Errorf("crear transaccion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toTransaccionResponse(t)
	return &resp, nil
}

func (s *cajaService) ListarTransacciones(ctx context.Context, fecha *datatypes.Date) ([]dto.TransaccionResponse, error) {
	ts, err := s.repo.ListTransacciones(ctx, s.fechaODia(fecha))
	if err != nil {
		return nil, fmt.Errorf("listar transacciones: %w", err)
	}
	out := make([]dto.TransaccionResponse, len(ts))
	for i := range ts {
		out[i] = toTransaccionResponse(&ts[i])
	}
	return out, nil
}

// ResumenDiario totals a day's movements by category without touching the close.
func (s *cajaService) ResumenDiario(ctx context.Context, fecha *datatypes.Date) (*dto.ResumenDiarioResponse, error) {
	dia := s.fechaODia(fecha)
	ts, err := s.repo.ListTransacciones(ctx, dia)
	if err != nil {
		return nil, fmt.Errorf("resumen diario: %w", err)
	}

	var tmp model.CierreCaja
	calcularTotales(&tmp, ts)

	resp := &dto.ResumenDiarioResponse{
		Fecha:                   clock.FormatDate(dia),
		TotalVentasFacturadas:   tmp.TotalVentasFacturadas,
		TotalVentasNoFacturadas: tmp.TotalVentasNoFacturadas,
		TotalOtrosIngresos:      tmp.TotalOtrosIngresos,
		TotalGeneral:            tmp.TotalCalculado,
		CantidadTransacciones:   len(ts),
		Transacciones:           make([]dto.TransaccionResponse, len(ts)),
	}
	for i := range ts {
		resp.Transacciones[i] = toTransaccionResponse(&ts[i])
	}

	cierre, err := s.repo.FindCierreByFecha(ctx, dia)
	switch {
	case err == nil:
		id := cierre.ID.String()
		resp.CierreID = &id
		resp.Cerrado = cierre.Cerrado
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("resumen diario: %w", err)
	}
	return resp, nil
}

// ── Cierres ───────────────────────────────────────────────────────────────────

// CrearCierreHoy opens today's close with its totals already computed. The
// unique index on fecha settles a race between two concurrent callers.
func (s *cajaService) CrearCierreHoy(ctx context.Context) (*dto.CierreCajaResponse, error) {
	hoy := s.clock.Today()

	_, err := s.repo.FindCierreByFecha(ctx, hoy)
	if err == nil {
		return nil, apierror.Conflict("Ya existe un cierre de caja para hoy")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("buscar cierre: %w", err)
	}

	ts, err := s.repo.ListTransacciones(ctx, hoy)
	if err != nil {
		return nil, fmt.Errorf("crear cierre: %w", err)
	}
	cierre := &model.CierreCaja{Fecha: hoy}
	calcularTotales(cierre, ts)

	if err := s.repo.CreateCierre(ctx, cierre); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("Ya existe un cierre de caja para hoy")
		}
		return nil, fmt.Errorf("crear cierre: %w", err)
	}
	resp := toCierreResponse(cierre)
	return &resp, nil
}

func (s *cajaService) ObtenerCierre(ctx context.Context, id uuid.UUID) (*dto.CierreCajaResponse, error) {
	c, err := s.repo.FindCierreByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Cierre de caja no encontrado")
	}
	resp := toCierreResponse(c)
	return &resp, nil
}

func (s *cajaService) ListarCierres(ctx context.Context, page, limit int) (*dto.ListaCierresResponse, error) {
	cierres, total, err := s.repo.ListCierres(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("listar cierres: %w", err)
	}
	resp := &dto.ListaCierresResponse{
		Data:  make([]dto.CierreCajaResponse, len(cierres)),
		Page:  page,
		Limit: limit,
		Total: total,
	}
	for i := range cierres {
		resp.Data[i] = toCierreResponse(&cierres[i])
	}
	return resp, nil
}

// Recalcular refreshes an open close from the current transactions. Running
// it twice without new transactions yields the same totals.
func (s *cajaService) Recalcular(ctx context.Context, id uuid.UUID) (*dto.CierreCajaResponse, error) {
	var cierre *model.CierreCaja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.FindCierreForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "Cierre de caja no encontrado")
		}
		if c.Cerrado {
			return apierror.Conflict("No se puede recalcular una caja cerrada")
		}
		ts, err := s.repo.ListTransaccionesTx(tx, c.Fecha)
		if err != nil {
			return fmt.Errorf("recalcular: %w", err)
		}
		calcularTotales(c, ts)
		cierre = c
		return s.repo.UpdateCierreTx(tx, c)
	})
	if err != nil {
		return nil, err
	}
	resp := toCierreResponse(cierre)
	return &resp, nil
}

// Cerrar finalizes the close: records the counted cash, recomputes the totals
// one last time and freezes the row.
func (s *cajaService) Cerrar(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	var cierre *model.CierreCaja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		c, err := s.repo.FindCierreForUpdateTx(tx, id)
		if err != nil {
			return notFound(err, "Cierre de caja no encontrado")
		}
		if c.Cerrado {
			return apierror.Conflict("Esta caja ya está cerrada")
		}
		if req.TotalFisico == nil {
			return apierror.Validation("Debe proporcionar el total físico")
		}
		if req.TotalFisico.IsNegative() {
			return apierror.Validation("El total físico no puede ser negativo")
		}
		if !req.TotalFisico.Equal(req.TotalFisico.Round(2)) {
			return apierror.Validation("El monto no puede tener más de dos decimales.")
		}

		fisico := *req.TotalFisico
		ahora := s.clock.Now()
		c.TotalFisico = &fisico
		c.Observaciones = strings.TrimSpace(req.Observaciones)
		c.UsuarioCierreID = usuarioID
		c.FechaCierre = &ahora

		ts, err := s.repo.ListTransaccionesTx(tx, c.Fecha)
		if err != nil {
			return fmt.Errorf("cerrar caja: %w", err)
		}
		calcularTotales(c, ts)
		c.Cerrado = true
		cierre = c
		return s.repo.UpdateCierreTx(tx, c)
	})
	if err != nil {
		return nil, err
	}

	metrics.CierresCerrados.Inc()
	log.Info().
		Str("cierre_id", cierre.ID.String()).
		Str("fecha", clock.FormatDate(cierre.Fecha)).
		Str("diferencia", cierre.Diferencia.StringFixed(2)).
		Msg("caja cerrada")
	resp := toCierreResponse(cierre)
	return &resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// calcularTotales sums ts per category into c and refreshes the difference
// against the counted cash when one has been recorded.
func calcularTotales(c *model.CierreCaja, ts []model.Transaccion) {
	vf, vnf, io := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range ts {
		switch t.Tipo {
		case model.TipoVentaFacturada:
			vf = vf.Add(t.Monto)
		case model.TipoVentaNoFacturada:
			vnf = vnf.Add(t.Monto)
		case model.TipoOtroIngreso:
			io = io.Add(t.Monto)
		}
	}
	c.TotalVentasFacturadas = vf
	c.TotalVentasNoFacturadas = vnf
	c.TotalOtrosIngresos = io
	c.TotalCalculado = vf.Add(vnf).Add(io)
	if c.TotalFisico != nil {
		c.Diferencia = c.TotalFisico.Sub(c.TotalCalculado)
	} else {
		c.Diferencia = decimal.Zero
	}
}

func (s *cajaService) fechaODia(fecha *datatypes.Date) datatypes.Date {
	if fecha != nil {
		return clock.Normalize(*fecha)
	}
	return s.clock.Today()
}

func toTransaccionResponse(t *model.Transaccion) dto.TransaccionResponse {
	resp := dto.TransaccionResponse{
		ID:            t.ID.String(),
		Fecha:         clock.FormatDate(t.Fecha),
		Tipo:          t.Tipo,
		Monto:         t.Monto,
		Descripcion:   t.Descripcion,
		NumeroFactura: t.NumeroFactura,
		CreatedAt:     t.CreatedAt,
	}
	if t.UsuarioID != nil {
		id := t.UsuarioID.String()
		resp.UsuarioID = &id
	}
	return resp
}

func toCierreResponse(c *model.CierreCaja) dto.CierreCajaResponse {
	resp := dto.CierreCajaResponse{
		ID:                      c.ID.String(),
		Fecha:                   clock.FormatDate(c.Fecha),
		TotalVentasFacturadas:   c.TotalVentasFacturadas,
		TotalVentasNoFacturadas: c.TotalVentasNoFacturadas,
		TotalOtrosIngresos:      c.TotalOtrosIngresos,
		TotalCalculado:          c.TotalCalculado,
		TotalFisico:             c.TotalFisico,
		Diferencia:              c.Diferencia,
		Cerrado:                 c.Cerrado,
		FechaCierre:             c.FechaCierre,
		Observaciones:           c.Observaciones,
	}
	if c.UsuarioCierreID != nil {
		id := c.UsuarioCierreID.String()
		resp.UsuarioCierreID = &id
	}
	return resp
}
