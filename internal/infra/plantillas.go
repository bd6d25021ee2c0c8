package infra

// plantillas.go: email bodies for debt notifications.
// Each template exists twice (HTML + plain text) under plantillas/ and is
// rendered from a typed ContextoDeuda. NewPlantillas renders every template
// against a sample context so a template referencing an unknown field fails
// at startup instead of at send time.

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/shopspring/decimal"
)

//go:embed plantillas/*.html plantillas/*.txt
var plantillasFS embed.FS

const (
	PlantillaDeudaVencidaCliente = "deuda_vencida_cliente"
	PlantillaDeudaVencidaAdmin   = "deuda_vencida_admin"
	PlantillaRecordatorioPago    = "recordatorio_pago"
)

var todasLasPlantillas = []string{
	PlantillaDeudaVencidaCliente,
	PlantillaDeudaVencidaAdmin,
	PlantillaRecordatorioPago,
}

// ContextoDeuda is the only data a notification template can see.
type ContextoDeuda struct {
	Empresa          string
	ClienteNombre    string
	ClienteCorreo    string
	ClienteTelefono  string
	Descripcion      string
	MontoDeuda       decimal.Decimal
	SaldoRestante    decimal.Decimal
	FechaVencimiento string // YYYY-MM-DD, empty when the debt has no due date
	DiasVencidos     int
}

func (c ContextoDeuda) Validate() error {
	switch {
	case c.ClienteNombre == "":
		return errors.New("contexto: cliente sin nombre")
	case c.ClienteCorreo == "":
		return errors.New("contexto: cliente sin correo")
	case !c.MontoDeuda.IsPositive():
		return errors.New("contexto: monto de deuda no positivo")
	case c.SaldoRestante.IsNegative():
		return errors.New("contexto: saldo negativo")
	case c.DiasVencidos < 0:
		return errors.New("contexto: dias vencidos negativo")
	}
	return nil
}

type Plantillas struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func moneda(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

// NewPlantillas parses the embedded templates and verifies each one renders.
func NewPlantillas() (*Plantillas, error) {
	h, err := htmltemplate.New("plantillas").
		Funcs(htmltemplate.FuncMap{"moneda": moneda}).
		Option("missingkey=error").
		ParseFS(plantillasFS, "plantillas/*.html")
	if err != nil {
		return nil, fmt.Errorf("plantillas html: %w", err)
	}
	t, err := texttemplate.New("plantillas").
		Funcs(texttemplate.FuncMap{"moneda": moneda}).
		Option("missingkey=error").
		ParseFS(plantillasFS, "plantillas/*.txt")
	if err != nil {
		return nil, fmt.Errorf("plantillas texto: %w", err)
	}

	p := &Plantillas{html: h, text: t}
	muestra := ContextoDeuda{
		Empresa:          "Refrigas",
		ClienteNombre:    "Cliente de prueba",
		ClienteCorreo:    "cliente@example.com",
		MontoDeuda:       decimal.NewFromInt(100),
		SaldoRestante:    decimal.NewFromInt(60),
		FechaVencimiento: "2024-01-01",
		DiasVencidos:     3,
	}
	for _, nombre := range todasLasPlantillas {
		if _, _, err := p.Render(nombre, muestra); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Render returns the HTML and plain-text bodies of the named template.
func (p *Plantillas) Render(nombre string, datos ContextoDeuda) (string, string, error) {
	if err := datos.Validate(); err != nil {
		return "", "", err
	}
	var hb, tb bytes.Buffer
	if err := p.html.ExecuteTemplate(&hb, nombre+".html", datos); err != nil {
		return "", "", fmt.Errorf("plantilla %s.html: %w", nombre, err)
	}
	if err := p.text.ExecuteTemplate(&tb, nombre+".txt", datos); err != nil {
		return "", "", fmt.Errorf("plantilla %s.txt: %w", nombre, err)
	}
	return hb.String(), tb.String(), nil
}
