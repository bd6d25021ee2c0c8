//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"refrigas/internal/clock"
	"refrigas/internal/config"
	"refrigas/internal/dto"
	"refrigas/internal/infra"
	"refrigas/internal/middleware"
	"refrigas/internal/model"
	"refrigas/internal/repository"
	"refrigas/internal/router"
	"refrigas/internal/service"
	"refrigas/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type fakeIdP struct{}

func (fakeIdP) AuthCodeURL(state string) string { return "https://idp.test/authorize?state=" + state }
func (fakeIdP) LogoutURL() string               { return "https://idp.test/v2/logout" }

func (fakeIdP) Exchange(_ context.Context, code string) (*dto.Identidad, error) {
	if code == "" {
		return nil, errors.New("invalid_grant")
	}
	// The code doubles as the email in these tests.
	return &dto.Identidad{Subject: "auth0|" + code, Email: code}, nil
}

type okMailer struct{}

func (okMailer) Send(context.Context, string, string, string, string) error { return nil }

type testEnv struct {
	db     *gorm.DB
	rdb    *redis.Client
	clock  *clock.Clock
	server *httptest.Server
	auth   service.AuthService
	notif  service.NotificacionService
	token  string // administrator session
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("refrigas_test"),
		tcPostgres.WithUsername("refrigas"),
		tcPostgres.WithPassword("refrigas"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(pgURL))
	// A second run is a no-op.
	require.NoError(t, infra.RunMigrations(pgURL))

	db, err := infra.NewDatabase(pgURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	clk, err := clock.New("America/Bogota")
	require.NoError(t, err)
	plantillas, err := infra.NewPlantillas()
	require.NoError(t, err)

	clienteRepo := repository.NewClienteRepository(db)
	deudaRepo := repository.NewDeudaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)

	usuarios := service.NewUsuarioService(usuarioRepo)
	_, err = usuarios.Crear(ctx, dto.CrearUsuarioRequest{Email: "admin@e2e.test", Nombre: "Admin E2E", Rol: model.RolAdministrador})
	require.NoError(t, err)

	cartera := service.NewCarteraService(clienteRepo, deudaRepo, clk)
	notif := service.NewNotificacionService(cartera, deudaRepo, usuarioRepo, repository.NewNotificacionRepository(db),
		okMailer{}, plantillas, clk, "Refrigas", 5*time.Second)
	auth := service.NewAuthService(fakeIdP{}, infra.NewSesionStore(rdb), usuarioRepo, "e2e-secret", time.Hour, clk)

	cfg := &config.Config{Env: "test", WebhookSecretToken: "hook", AllowedOrigins: "http://localhost:3000"}
	h := router.New(cfg, router.Deps{
		DB:             db,
		Redis:          rdb,
		Limiter:        middleware.NewRedisCounter(rdb),
		Auth:           auth,
		Usuarios:       usuarios,
		Cartera:        cartera,
		Caja:           service.NewCajaService(cajaRepo, clk),
		Notificaciones: notif,
		Reportes:       service.NewReporteService(clienteRepo, deudaRepo, cajaRepo, clk, "Refrigas"),
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	sesion, err := auth.Callback(ctx, "admin@e2e.test")
	require.NoError(t, err)

	return &testEnv{db: db, rdb: rdb, clock: clk, server: srv, auth: auth, notif: notif, token: sesion.Token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("health", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/health", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("abonos concurrentes no sobrepagan", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/v1/clientes", map[string]string{"nombre": "Ana", "correo": "ana@example.com"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var cliente dto.ClienteResponse
		decodeJSON(t, resp, &cliente)

		resp = env.do(t, http.MethodPost, "/v1/deudas", map[string]string{"cliente_id": cliente.ID, "monto": "100"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var deuda dto.DeudaResponse
		decodeJSON(t, resp, &deuda)

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			oks int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := env.do(t, http.MethodPost, "/v1/deudas/"+deuda.ID+"/abonos", map[string]string{"monto": "30"})
				r.Body.Close()
				if r.StatusCode == http.StatusCreated {
					mu.Lock()
					oks++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 3, oks)

		resp = env.do(t, http.MethodGet, "/v1/deudas/"+deuda.ID+"/saldo", nil)
		var saldo dto.SaldoResponse
		decodeJSON(t, resp, &saldo)
		assert.Equal(t, "10", saldo.SaldoRestante.String())
		assert.False(t, saldo.Pagada)
	})

	t.Run("un solo cierre por dia", func(t *testing.T) {
		var wg sync.WaitGroup
		codigos := make(chan int, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := env.do(t, http.MethodPost, "/v1/caja/cierres/hoy", nil)
				r.Body.Close()
				codigos <- r.StatusCode
			}()
		}
		wg.Wait()
		close(codigos)
		creados := 0
		for c := range codigos {
			if c == http.StatusCreated {
				creados++
			} else {
				assert.Equal(t, http.StatusConflict, c)
			}
		}
		assert.Equal(t, 1, creados)
	})

	t.Run("cerrar caja no pierde transacciones concurrentes", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/v1/caja/cierres?limit=1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var lista dto.ListaCierresResponse
		decodeJSON(t, resp, &lista)
		require.NotEmpty(t, lista.Data)
		cierreID := lista.Data[0].ID

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			aceptados int
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := env.do(t, http.MethodPost, "/v1/caja/cierres/"+cierreID+"/cerrar", map[string]string{"total_fisico": "0"})
			r.Body.Close()
			assert.Equal(t, http.StatusOK, r.StatusCode)
		}()
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := env.do(t, http.MethodPost, "/v1/caja/transacciones", map[string]string{"tipo": "VNF", "monto": "5", "descripcion": "carrera"})
				r.Body.Close()
				if r.StatusCode == http.StatusCreated {
					mu.Lock()
					aceptados++
					mu.Unlock()
				} else {
					assert.Equal(t, http.StatusConflict, r.StatusCode)
				}
			}()
		}
		wg.Wait()

		resp = env.do(t, http.MethodGet, "/v1/caja/cierres/"+cierreID, nil)
		var cierre dto.CierreCajaResponse
		decodeJSON(t, resp, &cierre)
		assert.True(t, cierre.Cerrado)
		assert.Equal(t, int64(5*aceptados), cierre.TotalCalculado.IntPart())
	})

	t.Run("logout revoca la sesion en redis", func(t *testing.T) {
		ctx := context.Background()
		sesion, err := env.auth.Callback(ctx, "admin@e2e.test")
		require.NoError(t, err)
		_, err = env.auth.Validar(ctx, sesion.Token)
		require.NoError(t, err)

		env.auth.Logout(ctx, sesion.Token)
		_, err = env.auth.Validar(ctx, sesion.Token)
		assert.Error(t, err)

		_, err = env.auth.Callback(ctx, "intruso@e2e.test")
		assert.Error(t, err)
	})
}

func TestE2E_SesionStoreYContador(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	store := infra.NewSesionStore(env.rdb)
	require.NoError(t, store.Guardar(ctx, "sid-1", "u1", time.Minute))
	ok, err := store.Existe(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ttl, err := env.rdb.TTL(ctx, "sesion:sid-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Revocar(ctx, "sid-1"))
	ok, err = store.Existe(ctx, "sid-1")
	require.NoError(t, err)
	assert.False(t, ok)

	counter := middleware.NewRedisCounter(env.rdb)
	for i := int64(1); i <= 3; i++ {
		n, err := counter.Hit(ctx, "ratelimit:test", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
}

func TestE2E_ColaDeVerificacion(t *testing.T) {
	env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := worker.NewDispatcher(env.rdb, env.clock)
	primero, err := d.EnqueueVerificacion(ctx)
	require.NoError(t, err)
	assert.True(t, primero)
	segundo, err := d.EnqueueVerificacion(ctx)
	require.NoError(t, err)
	assert.False(t, segundo)

	n, err := env.rdb.LLen(ctx, worker.QueueNotificaciones).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var procesados sync.WaitGroup
	procesados.Add(1)
	pool := worker.NewPool(env.rdb, worker.NewRedisDLQ(env.rdb))
	pool.Handle(worker.JobVerificarDeudas, func(ctx context.Context, raw json.RawMessage) error {
		defer procesados.Done()
		return worker.VerificacionHandler(env.notif)(ctx, raw)
	})
	pool.Start(ctx, 1)
	procesados.Wait()

	cancel()
	pool.Wait()

	n, err = env.rdb.LLen(context.Background(), worker.QueueNotificaciones).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
	dlq, err := worker.NewRedisDLQ(env.rdb).Length(context.Background(), worker.QueueNotificaciones)
	require.NoError(t, err)
	assert.Zero(t, dlq)
}
