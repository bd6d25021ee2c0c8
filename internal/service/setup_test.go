package service

import (
	"context"
	"testing"
	"time"

	"refrigas/internal/apierror"
	"refrigas/internal/clock"
	"refrigas/internal/dto"
	"refrigas/internal/repository"
	"refrigas/internal/testdb"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	clock    *clock.Clock
	clientes repository.ClienteRepository
	deudas   repository.DeudaRepository
	caja     repository.CajaRepository
	usuarios repository.UsuarioRepository
	notifs   repository.NotificacionRepository
	cartera  CarteraService
	cajaSvc  CajaService
}

// newTestEnv wires the services against a fresh SQLite store with the clock
// frozen at the given instant in America/Bogota.
func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	db := testdb.New(t)
	env := &testEnv{
		db:       db,
		clock:    clock.NewFixed(now, loc),
		clientes: repository.NewClienteRepository(db),
		deudas:   repository.NewDeudaRepository(db),
		caja:     repository.NewCajaRepository(db),
		usuarios: repository.NewUsuarioRepository(db),
		notifs:   repository.NewNotificacionRepository(db),
	}
	env.cartera = NewCarteraService(env.clientes, env.deudas, env.clock)
	env.cajaSvc = NewCajaService(env.caja, env.clock)
	return env
}

// mediodia returns noon of the given day in Bogota, as a UTC instant.
func mediodia(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 17, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func (e *testEnv) crearCliente(t *testing.T, nombre, correo string) *dto.ClienteResponse {
	t.Helper()
	c, err := e.cartera.CrearCliente(context.Background(), dto.ClienteRequest{Nombre: nombre, Correo: correo})
	require.NoError(t, err)
	return c
}

func (e *testEnv) crearDeuda(t *testing.T, clienteID, monto string, vencimiento *string) *dto.DeudaResponse {
	t.Helper()
	d, err := e.cartera.CrearDeuda(context.Background(), dto.CrearDeudaRequest{
		ClienteID:        clienteID,
		Monto:            dec(monto),
		FechaVencimiento: vencimiento,
	})
	require.NoError(t, err)
	return d
}

func requireKind(t *testing.T, err error, kind apierror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apierror.KindOf(err), "error: %v", err)
}
