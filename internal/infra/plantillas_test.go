package infra

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlantillas_RenderCliente(t *testing.T) {
	p, err := NewPlantillas()
	require.NoError(t, err)

	html, texto, err := p.Render(PlantillaDeudaVencidaCliente, ContextoDeuda{
		Empresa:          "Refrigas",
		ClienteNombre:    "Ana <Pérez>",
		ClienteCorreo:    "ana@example.com",
		Descripcion:      "Compresor",
		MontoDeuda:       decimal.NewFromInt(100),
		SaldoRestante:    decimal.RequireFromString("60.5"),
		FechaVencimiento: "2024-04-20",
		DiasVencidos:     11,
	})
	require.NoError(t, err)

	assert.Contains(t, texto, "Hola Ana <Pérez>,")
	assert.Contains(t, texto, "Saldo pendiente: $60.50")
	assert.Contains(t, texto, "(11 días de atraso)")
	// HTML output escapes user data.
	assert.Contains(t, html, "Ana &lt;Pérez&gt;")
	assert.Contains(t, html, "$100.00")
}

func TestPlantillas_RejectsInvalidContext(t *testing.T) {
	p, err := NewPlantillas()
	require.NoError(t, err)

	_, _, err = p.Render(PlantillaDeudaVencidaAdmin, ContextoDeuda{
		ClienteCorreo: "x@example.com",
		MontoDeuda:    decimal.NewFromInt(1),
	})
	assert.Error(t, err)

	_, _, err = p.Render("no_existe", ContextoDeuda{
		ClienteNombre: "X",
		ClienteCorreo: "x@example.com",
		MontoDeuda:    decimal.NewFromInt(1),
	})
	assert.Error(t, err)
}
