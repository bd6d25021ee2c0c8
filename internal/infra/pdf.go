package infra

// pdf.go: printable daily cash close using go-pdf/fpdf.
// A5 portrait page with:
//   - Business name header and the close date
//   - Totals per category and the computed grand total
//   - Counted cash and difference (when the close is finalized)
//   - Transaction detail table
//   - Closing user, timestamp and notes

import (
	"bytes"
	"fmt"

	"refrigas/internal/model"

	"github.com/go-pdf/fpdf"
)

var etiquetaTipo = map[string]string{
	model.TipoVentaFacturada:   "Venta facturada",
	model.TipoVentaNoFacturada: "Venta no facturada",
	model.TipoOtroIngreso:      "Otro ingreso",
}

// GenerateCierrePDF renders the close and the day's transactions. fecha is the
// close date already formatted by the caller.
func GenerateCierrePDF(empresa, fecha string, c *model.CierreCaja, ts []model.Transaccion) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(empresa), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Cierre de caja del "+fecha), "", 1, "C", false, 0, "")
	estado := "ABIERTA"
	if c.Cerrado {
		estado = "CERRADA"
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, estado, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := contentW * 0.65
	valueW := contentW - labelW
	fila := func(label, valor string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(labelW, 6, tr(label), "B", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, valor, "B", 1, "R", false, 0, "")
	}
	fila("Ventas facturadas", "$"+c.TotalVentasFacturadas.StringFixed(2), false)
	fila("Ventas no facturadas", "$"+c.TotalVentasNoFacturadas.StringFixed(2), false)
	fila("Otros ingresos", "$"+c.TotalOtrosIngresos.StringFixed(2), false)
	fila("Total calculado", "$"+c.TotalCalculado.StringFixed(2), true)
	if c.TotalFisico != nil {
		fila("Total físico", "$"+c.TotalFisico.StringFixed(2), false)
		fila("Diferencia", "$"+c.Diferencia.StringFixed(2), true)
	}
	pdf.Ln(4)

	// ── Transactions ──────────────────────────────────────────────────────────
	col1 := contentW * 0.30
	col2 := contentW * 0.45
	col3 := contentW * 0.25

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(0x36, 0x60, 0x92)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(col1, 6, "Tipo", "1", 0, "C", true, 0, "")
	pdf.CellFormat(col2, 6, tr("Descripción"), "1", 0, "C", true, 0, "")
	pdf.CellFormat(col3, 6, "Monto", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 8)
	if len(ts) == 0 {
		pdf.CellFormat(contentW, 6, "Sin movimientos", "1", 1, "C", false, 0, "")
	}
	for _, t := range ts {
		desc := t.Descripcion
		if t.NumeroFactura != nil && *t.NumeroFactura != "" {
			desc = fmt.Sprintf("%s (Fact. %s)", desc, *t.NumeroFactura)
		}
		if r := []rune(desc); len(r) > 38 {
			desc = string(r[:37]) + "…"
		}
		pdf.CellFormat(col1, 5, tr(etiquetaTipo[t.Tipo]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, tr(desc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+t.Monto.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	if c.Cerrado {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 8)
		if c.FechaCierre != nil {
			pdf.CellFormat(contentW, 5, "Cerrada el "+c.FechaCierre.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
		}
		if c.Observaciones != "" {
			pdf.MultiCell(contentW, 5, tr("Observaciones: "+c.Observaciones), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: cierre %s: %w", fecha, err)
	}
	return buf.Bytes(), nil
}
