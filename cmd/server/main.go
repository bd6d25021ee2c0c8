package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refrigas/internal/clock"
	"refrigas/internal/config"
	"refrigas/internal/infra"
	"refrigas/internal/middleware"
	"refrigas/internal/repository"
	"refrigas/internal/router"
	"refrigas/internal/service"
	"refrigas/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Refrigas API
// @version 1.0
// @description Cartera de clientes, caja diaria y notificaciones de deudas vencidas.
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name refrigas_sesion
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	clk, err := clock.New(cfg.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Str("zone", cfg.TimeZone).Msg("invalid time zone")
	}

	if cfg.RunMigrations {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	plantillas, err := infra.NewPlantillas()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid email templates")
	}
	mailer, err := infra.NewMailer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure smtp")
	}
	defer mailer.Close()

	// ── Repositories ─────────────────────────────────────────────────────────
	clienteRepo := repository.NewClienteRepository(db)
	deudaRepo := repository.NewDeudaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	usuarioRepo := repository.NewUsuarioRepository(db)
	notificacionRepo := repository.NewNotificacionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	carteraSvc := service.NewCarteraService(clienteRepo, deudaRepo, clk)
	notifSvc := service.NewNotificacionService(carteraSvc, deudaRepo, usuarioRepo, notificacionRepo,
		mailer, plantillas, clk, cfg.Empresa, cfg.SMTPTimeout())
	authSvc := service.NewAuthService(infra.NewAuth0(cfg), infra.NewSesionStore(rdb), usuarioRepo,
		cfg.SessionSecret, cfg.SessionTTL(), clk)

	// Worker pool and optional in-process timer. Handlers are wired here so
	// the pool has the same services as the HTTP layer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(rdb, worker.NewRedisDLQ(rdb))
	pool.Handle(worker.JobVerificarDeudas, worker.VerificacionHandler(notifSvc))
	pool.Start(ctx, cfg.WorkerPoolSize)

	var scheduler *worker.Scheduler
	if cfg.NotificacionesCron != "" {
		scheduler = worker.NewScheduler(worker.NewDispatcher(rdb, clk), clk.Location())
		if err := scheduler.Start(cfg.NotificacionesCron); err != nil {
			log.Fatal().Err(err).Str("spec", cfg.NotificacionesCron).Msg("invalid NOTIFICACIONES_CRON")
		}
	}

	h := router.New(cfg, router.Deps{
		DB:             db,
		Redis:          rdb,
		SMTP:           mailer.Breaker(),
		Limiter:        middleware.NewRedisCounter(rdb),
		Auth:           authSvc,
		Usuarios:       service.NewUsuarioService(usuarioRepo),
		Cartera:        carteraSvc,
		Caja:           service.NewCajaService(cajaRepo, clk),
		Notificaciones: notifSvc,
		Reportes:       service.NewReporteService(clienteRepo, deudaRepo, cajaRepo, clk, cfg.Empresa),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.NotificacionesTimeout() + 10*time.Second, // an on-demand overdue scan runs inside the request
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("Refrigas backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	if scheduler != nil {
		scheduler.Stop()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	cancel()
	pool.Wait()
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
