// cmd/verificardeudas: runs the overdue-debt scan once and prints the counters.
// Meant for an external scheduler. Uso: go run ./cmd/verificardeudas
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"refrigas/internal/clock"
	"refrigas/internal/config"
	"refrigas/internal/dto"
	"refrigas/internal/infra"
	"refrigas/internal/repository"
	"refrigas/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return 1
	}
	clk, err := clock.New(cfg.TimeZone)
	if err != nil {
		log.Error().Err(err).Msg("invalid time zone")
		return 1
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to postgres")
		return 1
	}
	plantillas, err := infra.NewPlantillas()
	if err != nil {
		log.Error().Err(err).Msg("invalid email templates")
		return 1
	}
	mailer, err := infra.NewMailer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to configure smtp")
		return 1
	}
	defer mailer.Close()

	deudas := repository.NewDeudaRepository(db)
	cartera := service.NewCarteraService(repository.NewClienteRepository(db), deudas, clk)
	svc := service.NewNotificacionService(cartera, deudas, repository.NewUsuarioRepository(db),
		repository.NewNotificacionRepository(db), mailer, plantillas, clk, cfg.Empresa, cfg.SMTPTimeout())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	res, err := svc.VerificarDeudasVencidas(ctx)
	if err != nil {
		log.Error().Err(err).Msg("verificacion fallida")
		return 1
	}

	return reportar(os.Stdout, res)
}

// reportar prints the counters and returns 1 when any send failed.
func reportar(w io.Writer, res *dto.ResultadoVerificacion) int {
	fmt.Fprintf(w, "Deudas vencidas:          %d\n", res.TotalDeudas)
	fmt.Fprintf(w, "Notificaciones clientes:  %d\n", res.NotificacionesClientes)
	fmt.Fprintf(w, "Notificaciones admins:    %d\n", res.NotificacionesAdmins)
	fmt.Fprintf(w, "Enviadas:                 %d\n", res.Enviadas)
	fmt.Fprintf(w, "Fallidas:                 %d\n", res.Fallidas)
	if res.Fallidas > 0 {
		return 1
	}
	return 0
}
