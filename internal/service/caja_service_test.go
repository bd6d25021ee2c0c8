package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/dto"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrar(t *testing.T, env *testEnv, tipo, monto string) {
	t.Helper()
	_, err := env.cajaSvc.RegistrarTransaccion(context.Background(), nil, dto.TransaccionRequest{
		Tipo:        tipo,
		Monto:       dec(monto),
		Descripcion: "mov " + tipo,
	})
	require.NoError(t, err)
}

func TestCierreCaja_Escenario20240501(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()

	registrar(t, env, "VF", "150000")
	registrar(t, env, "VNF", "25000")
	registrar(t, env, "IO", "5000")

	cierre, err := env.cajaSvc.CrearCierreHoy(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", cierre.Fecha)
	assert.Equal(t, "150000.00", cierre.TotalVentasFacturadas.StringFixed(2))
	assert.Equal(t, "25000.00", cierre.TotalVentasNoFacturadas.StringFixed(2))
	assert.Equal(t, "5000.00", cierre.TotalOtrosIngresos.StringFixed(2))
	assert.Equal(t, "180000.00", cierre.TotalCalculado.StringFixed(2))
	assert.False(t, cierre.Cerrado)

	id := uuid.MustParse(cierre.ID)
	usuario := uuid.New()
	fisico := dec("179000")
	cerrado, err := env.cajaSvc.Cerrar(ctx, id, &usuario, dto.CerrarCajaRequest{TotalFisico: &fisico, Observaciones: " faltante "})
	require.NoError(t, err)
	assert.True(t, cerrado.Cerrado)
	assert.Equal(t, "-1000.00", cerrado.Diferencia.StringFixed(2))
	assert.Equal(t, "180000.00", cerrado.TotalCalculado.StringFixed(2))
	assert.Equal(t, "faltante", cerrado.Observaciones)
	require.NotNil(t, cerrado.UsuarioCierreID)
	assert.Equal(t, usuario.String(), *cerrado.UsuarioCierreID)
	assert.NotNil(t, cerrado.FechaCierre)

	leido, err := env.cajaSvc.ObtenerCierre(ctx, id)
	require.NoError(t, err)
	assert.True(t, leido.Cerrado)
	require.NotNil(t, leido.TotalFisico)
	assert.Equal(t, "179000.00", leido.TotalFisico.StringFixed(2))
	assert.Equal(t, "-1000.00", leido.Diferencia.StringFixed(2))
}

func TestRecalcular_EsIdempotente(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()
	registrar(t, env, "VF", "100.50")

	cierre, err := env.cajaSvc.CrearCierreHoy(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(cierre.ID)

	registrar(t, env, "IO", "9.50")
	primero, err := env.cajaSvc.Recalcular(ctx, id)
	require.NoError(t, err)
	segundo, err := env.cajaSvc.Recalcular(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "110.00", primero.TotalCalculado.StringFixed(2))
	assert.Equal(t, primero.TotalCalculado.String(), segundo.TotalCalculado.String())
	assert.Equal(t, primero.TotalVentasFacturadas.String(), segundo.TotalVentasFacturadas.String())
	assert.Equal(t, primero.TotalOtrosIngresos.String(), segundo.TotalOtrosIngresos.String())
}

func TestCierreCaja_CerradoQuedaCongelado(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()
	registrar(t, env, "VF", "10")

	cierre, err := env.cajaSvc.CrearCierreHoy(ctx)
	require.NoError(t, err)
	id := uuid.MustParse(cierre.ID)

	_, err = env.cajaSvc.Cerrar(ctx, id, nil, dto.CerrarCajaRequest{})
	requireKind(t, err, apierror.KindValidation)

	negativo := dec("-1")
	_, err = env.cajaSvc.Cerrar(ctx, id, nil, dto.CerrarCajaRequest{TotalFisico: &negativo})
	requireKind(t, err, apierror.KindValidation)

	fisico := dec("10")
	_, err = env.cajaSvc.Cerrar(ctx, id, nil, dto.CerrarCajaRequest{TotalFisico: &fisico})
	require.NoError(t, err)

	_, err = env.cajaSvc.Cerrar(ctx, id, nil, dto.CerrarCajaRequest{TotalFisico: &fisico})
	requireKind(t, err, apierror.KindConflict)

	_, err = env.cajaSvc.Recalcular(ctx, id)
	requireKind(t, err, apierror.KindConflict)

	_, err = env.cajaSvc.RegistrarTransaccion(ctx, nil, dto.TransaccionRequest{Tipo: "VF", Monto: dec("1"), Descripcion: "tarde"})
	requireKind(t, err, apierror.KindConflict)

	leido, err := env.cajaSvc.ObtenerCierre(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "10.00", leido.TotalCalculado.StringFixed(2))
	assert.True(t, leido.Diferencia.IsZero())
}

func TestCrearCierreHoy_Duplicado(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()
	registrar(t, env, "VNF", "40")

	primero, err := env.cajaSvc.CrearCierreHoy(ctx)
	require.NoError(t, err)

	registrar(t, env, "VNF", "60")
	_, err = env.cajaSvc.CrearCierreHoy(ctx)
	requireKind(t, err, apierror.KindConflict)

	existente, err := env.cajaSvc.ObtenerCierre(ctx, uuid.MustParse(primero.ID))
	require.NoError(t, err)
	assert.Equal(t, "40.00", existente.TotalCalculado.StringFixed(2))

	lista, err := env.cajaSvc.ListarCierres(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), lista.Total)
}

func TestCrearCierreHoy_ConcurrenteCreaUnoSolo(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()

	const intentos = 5
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		creados    int
		conflictos int
	)
	for i := 0; i < intentos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.cajaSvc.CrearCierreHoy(ctx)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				creados++
			case apierror.KindOf(err) == apierror.KindConflict:
				conflictos++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creados)
	assert.Equal(t, intentos-1, conflictos)
}

func TestCerrar_ConcurrenteConTransacciones(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()
	registrar(t, env, "VF", "100")
	cierre, err := env.cajaSvc.CrearCierreHoy(ctx)
	require.NoError(t, err)

	const movimientos = 10
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		aceptados  int
		rechazados int
	)
	fisico := dec("0")
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := env.cajaSvc.Cerrar(ctx, uuid.MustParse(cierre.ID), nil, dto.CerrarCajaRequest{TotalFisico: &fisico})
		assert.NoError(t, err)
	}()
	for i := 0; i < movimientos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.cajaSvc.RegistrarTransaccion(ctx, nil, dto.TransaccionRequest{Tipo: "VNF", Monto: dec("5"), Descripcion: "carrera"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				aceptados++
			case apierror.KindOf(err) == apierror.KindConflict:
				rechazados++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, movimientos, aceptados+rechazados)

	// Every accepted movement is part of the frozen total.
	leido, err := env.cajaSvc.ObtenerCierre(ctx, uuid.MustParse(cierre.ID))
	require.NoError(t, err)
	require.True(t, leido.Cerrado)
	ts, err := env.cajaSvc.ListarTransacciones(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, ts, 1+aceptados)
	esperado := decimal.NewFromInt(100 + 5*int64(aceptados))
	assert.True(t, esperado.Equal(leido.TotalCalculado), "total %s, esperado %s", leido.TotalCalculado, esperado)
}

func TestRegistrarTransaccion_Validaciones(t *testing.T) {
	env := newTestEnv(t, mediodia(2024, 5, 1))
	ctx := context.Background()

	_, err := env.cajaSvc.RegistrarTransaccion(ctx, nil, dto.TransaccionRequest{Tipo: "XX", Monto: dec("1"), Descripcion: "x"})
	requireKind(t, err, apierror.KindValidation)
	_, err = env.cajaSvc.RegistrarTransaccion(ctx, nil, dto.TransaccionRequest{Tipo: "VF", Monto: decimal.Zero, Descripcion: "x"})
	requireKind(t, err, apierror.KindValidation)
	_, err = env.cajaSvc.RegistrarTransaccion(ctx, nil, dto.TransaccionRequest{Tipo: "VF", Monto: dec("1"), Descripcion: "x", Fecha: strPtr("mayo")})
	requireKind(t, err, apierror.KindValidation)
}

func TestResumenDiario_UsaLaZonaDelNegocio(t *testing.T) {
	// 22:00 in Bogota on April 30th is already May 1st in UTC.
	env := newTestEnv(t, time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC))
	ctx := context.Background()
	registrar(t, env, "VF", "70")

	otroDia := "2024-05-01"
	_, err := env.cajaSvc.RegistrarTransaccion(ctx, nil, dto.TransaccionRequest{Tipo: "IO", Monto: dec("5"), Descripcion: "otro día", Fecha: &otroDia})
	require.NoError(t, err)

	resumen, err := env.cajaSvc.ResumenDiario(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-04-30", resumen.Fecha)
	assert.Equal(t, 1, resumen.CantidadTransacciones)
	assert.Equal(t, "70.00", resumen.TotalGeneral.StringFixed(2))
	assert.Nil(t, resumen.CierreID)

	mayo := env.clock.DateOf(time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC))
	ts, err := env.cajaSvc.ListarTransacciones(ctx, &mayo)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, "IO", ts[0].Tipo)
}
