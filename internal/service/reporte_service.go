package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"refrigas/internal/apierror"
	"refrigas/internal/clock"
	"refrigas/internal/dto"
	"refrigas/internal/infra"
	"refrigas/internal/model"
	"refrigas/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ReporteService builds downloadable documents. Every method is read-only.
type ReporteService interface {
	General(ctx context.Context, filtro dto.FiltroReporteGeneral) (*dto.Archivo, error)
	Clientes(ctx context.Context) (*dto.Archivo, error)
	Abonos(ctx context.Context, filtro dto.FiltroReporteAbonos) (*dto.Archivo, error)
	CierrePDF(ctx context.Context, id uuid.UUID) (*dto.Archivo, error)
}

type reporteService struct {
	clientes repository.ClienteRepository
	deudas   repository.DeudaRepository
	caja     repository.CajaRepository
	clock    *clock.Clock
	empresa  string
}

func NewReporteService(clientes repository.ClienteRepository, deudas repository.DeudaRepository, caja repository.CajaRepository, clk *clock.Clock, empresa string) ReporteService {
	return &reporteService{clientes: clientes, deudas: deudas, caja: caja, clock: clk, empresa: empresa}
}

// ── Reporte general ───────────────────────────────────────────────────────────

func (s *reporteService) General(ctx context.Context, filtro dto.FiltroReporteGeneral) (*dto.Archivo, error) {
	f := repository.DeudaFiltro{}
	var err error
	if f.FechaInicio, err = fechaOpcional(filtro.FechaInicio, "fecha_inicio"); err != nil {
		return nil, err
	}
	if f.FechaFin, err = fechaOpcional(filtro.FechaFin, "fecha_fin"); err != nil {
		return nil, err
	}
	if filtro.ClienteID != "" {
		id, err := uuid.Parse(filtro.ClienteID)
		if err != nil {
			return nil, apierror.Validation("cliente_id inválido")
		}
		f.ClienteID = &id
	}
	if !filtro.IncluirPagadas {
		noPagadas := false
		f.Pagada = &noPagadas
	}

	deudas, err := s.deudas.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reporte general: %w", err)
	}

	h, err := nuevaHoja("Reporte General", []string{
		"ID Deuda", "Cliente", "Correo Cliente", "Teléfono", "Descripción",
		"Monto Total", "Total Abonado", "Saldo Restante", "Estado",
		"Fecha Creación", "Fecha Vencimiento", "Días Vencidos",
	})
	if err != nil {
		return nil, err
	}
	defer h.close()

	hoy := s.clock.Today()
	totalMonto, totalAbonado, totalSaldo := decimal.Zero, decimal.Zero, decimal.Zero
	for i := range deudas {
		d := &deudas[i]
		abonado := TotalAbonado(d)
		saldo := SaldoRestante(d)
		totalMonto = totalMonto.Add(d.Monto)
		totalAbonado = totalAbonado.Add(abonado)
		totalSaldo = totalSaldo.Add(saldo)

		var nombre, correo, telefono string
		if d.Cliente != nil {
			nombre, correo, telefono = d.Cliente.Nombre, d.Cliente.Correo, d.Cliente.Telefono
		}
		vencimiento := ""
		if d.FechaVencimiento != nil {
			vencimiento = clock.FormatDate(*d.FechaVencimiento)
		}
		if err := h.fila(
			d.ID.String(), nombre, correo, telefono, d.Descripcion,
			d.Monto, abonado, saldo, estadoDeuda(d, hoy),
			clock.FormatDate(d.Fecha), vencimiento, DiasVencidos(d, hoy),
		); err != nil {
			return nil, err
		}
	}
	if err := h.totales(map[int]any{5: "TOTALES", 6: totalMonto, 7: totalAbonado, 8: totalSaldo}); err != nil {
		return nil, err
	}
	return h.archivo(s.nombreArchivo("reporte_general"))
}

// ── Reporte de clientes ───────────────────────────────────────────────────────

func (s *reporteService) Clientes(ctx context.Context) (*dto.Archivo, error) {
	clientes, err := s.clientes.ListConDeudas(ctx)
	if err != nil {
		return nil, fmt.Errorf("reporte clientes: %w", err)
	}

	h, err := nuevaHoja("Reporte Clientes", []string{
		"ID Cliente", "Nombre", "Correo", "Teléfono", "Total Deudas", "Deudas Activas",
		"Monto Total Adeudado", "Monto Total Pagado", "Saldo Pendiente",
	})
	if err != nil {
		return nil, err
	}
	defer h.close()

	for i := range clientes {
		c := &clientes[i]
		adeudado, pagado, pendiente := decimal.Zero, decimal.Zero, decimal.Zero
		activas := 0
		for j := range c.Deudas {
			d := &c.Deudas[j]
			adeudado = adeudado.Add(d.Monto)
			pagado = pagado.Add(TotalAbonado(d))
			if !d.Pagada {
				activas++
				pendiente = pendiente.Add(SaldoRestante(d))
			}
		}
		if err := h.fila(
			c.ID.String(), c.Nombre, c.Correo, c.Telefono, len(c.Deudas), activas,
			adeudado, pagado, pendiente,
		); err != nil {
			return nil, err
		}
	}
	return h.archivo(s.nombreArchivo("reporte_clientes"))
}

// ── Reporte de abonos ─────────────────────────────────────────────────────────

func (s *reporteService) Abonos(ctx context.Context, filtro dto.FiltroReporteAbonos) (*dto.Archivo, error) {
	desde, err := fechaOpcional(filtro.FechaInicio, "fecha_inicio")
	if err != nil {
		return nil, err
	}
	hasta, err := fechaOpcional(filtro.FechaFin, "fecha_fin")
	if err != nil {
		return nil, err
	}
	abonos, err := s.deudas.ListAbonosEntre(ctx, desde, hasta)
	if err != nil {
		return nil, fmt.Errorf("reporte abonos: %w", err)
	}

	h, err := nuevaHoja("Reporte Abonos", []string{
		"ID Abono", "Cliente", "Descripción Deuda", "Monto Abono", "Fecha Abono",
		"Saldo Restante Deuda", "Estado Deuda",
	})
	if err != nil {
		return nil, err
	}
	defer h.close()

	hoy := s.clock.Today()
	total := decimal.Zero
	for i := range abonos {
		a := &abonos[i]
		total = total.Add(a.Monto)
		var cliente, descripcion, estado string
		saldo := decimal.Zero
		if d := a.Deuda; d != nil {
			descripcion = d.Descripcion
			saldo = SaldoRestante(d)
			estado = estadoDeuda(d, hoy)
			if d.Cliente != nil {
				cliente = d.Cliente.Nombre
			}
		}
		if err := h.fila(
			a.ID.String(), cliente, descripcion, a.Monto, clock.FormatDate(a.Fecha), saldo, estado,
		); err != nil {
			return nil, err
		}
	}
	if err := h.totales(map[int]any{3: "TOTAL ABONOS", 4: total}); err != nil {
		return nil, err
	}
	return h.archivo(s.nombreArchivo("reporte_abonos"))
}

// ── Cierre de caja ────────────────────────────────────────────────────────────

func (s *reporteService) CierrePDF(ctx context.Context, id uuid.UUID) (*dto.Archivo, error) {
	c, err := s.caja.FindCierreByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Cierre de caja no encontrado")
	}
	ts, err := s.caja.ListTransacciones(ctx, c.Fecha)
	if err != nil {
		return nil, fmt.Errorf("cierre pdf: %w", err)
	}
	fecha := clock.FormatDate(c.Fecha)
	contenido, err := infra.GenerateCierrePDF(s.empresa, fecha, c, ts)
	if err != nil {
		return nil, apierror.Transport("No se pudo generar el PDF", err)
	}
	return &dto.Archivo{
		Nombre:      "cierre_caja_" + fecha + ".pdf",
		ContentType: contentTypePDF,
		Contenido:   contenido,
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func estadoDeuda(d *model.Deuda, hoy datatypes.Date) string {
	switch {
	case d.Pagada:
		return "Pagada"
	case EstaVencida(d, hoy):
		return "Vencida"
	default:
		return "Pendiente"
	}
}

func fechaOpcional(s, campo string) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := clock.ParseDate(s)
	if err != nil {
		return nil, apierror.Validation(campo + " debe tener formato AAAA-MM-DD")
	}
	return &d, nil
}

func (s *reporteService) nombreArchivo(prefijo string) string {
	return prefijo + "_" + s.clock.Now().Format("20060102_150405") + ".xlsx"
}

// hoja writes one worksheet: a styled header row followed by data rows.
// Column widths track the longest value seen, capped at 50.
type hoja struct {
	f       *excelize.File
	nombre  string
	anchos  []int
	actual  int
	moneda  int
	negrita int
}

func nuevaHoja(nombre string, encabezados []string) (*hoja, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", nombre); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	borde := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	encabezado, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borde,
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	moneda, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	negrita, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	h := &hoja{f: f, nombre: nombre, anchos: make([]int, len(encabezados)), moneda: moneda, negrita: negrita}
	if err := h.fila(toAny(encabezados)...); err != nil {
		_ = f.Close()
		return nil, err
	}
	ultima, _ := excelize.CoordinatesToCellName(len(encabezados), 1)
	if err := f.SetCellStyle(nombre, "A1", ultima, encabezado); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	return h, nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// fila appends one row. Decimal values are written as numbers with a money
// format.
func (h *hoja) fila(valores ...any) error {
	h.actual++
	for i, v := range valores {
		if err := h.celda(i+1, v, h.moneda); err != nil {
			return err
		}
	}
	return nil
}

// totales leaves one blank row and writes a bold row with the given
// 1-based column values.
func (h *hoja) totales(cols map[int]any) error {
	h.actual += 2
	for col, v := range cols {
		if err := h.celda(col, v, h.negrita); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(col, h.actual)
		if err := h.f.SetCellStyle(h.nombre, cell, cell, h.negrita); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	return nil
}

func (h *hoja) celda(col int, v any, estiloMoneda int) error {
	cell, err := excelize.CoordinatesToCellName(col, h.actual)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	texto := fmt.Sprint(v)
	if d, ok := v.(decimal.Decimal); ok {
		texto = d.StringFixed(2)
		v = d.InexactFloat64()
		if err := h.f.SetCellStyle(h.nombre, cell, cell, estiloMoneda); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}
	if err := h.f.SetCellValue(h.nombre, cell, v); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if col <= len(h.anchos) {
		if n := utf8.RuneCountInString(texto); n > h.anchos[col-1] {
			h.anchos[col-1] = n
		}
	}
	return nil
}

func (h *hoja) archivo(nombre string) (*dto.Archivo, error) {
	for i, ancho := range h.anchos {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := h.f.SetColWidth(h.nombre, col, col, float64(min(ancho+2, 50))); err != nil {
			return nil, fmt.Errorf("xlsx: %w", err)
		}
	}
	buf, err := h.f.WriteToBuffer()
	if err != nil {
		return nil, apierror.Transport("No se pudo generar el reporte", err)
	}
	return &dto.Archivo{Nombre: nombre, ContentType: contentTypeXLSX, Contenido: buf.Bytes()}, nil
}

func (h *hoja) close() { _ = h.f.Close() }
