// cmd/seeduser: crea/actualiza un administrador autorizado y, con -demo,
// registra transacciones de ejemplo para la caja de hoy.
// Uso: go run ./cmd/seeduser -email admin@refrigas.com -demo
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"refrigas/internal/clock"
	"refrigas/internal/config"
	"refrigas/internal/dto"
	"refrigas/internal/infra"
	"refrigas/internal/model"
	"refrigas/internal/repository"
	"refrigas/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var demo = []dto.TransaccionRequest{
	{Tipo: model.TipoVentaFacturada, Monto: decimal.NewFromInt(150000), Descripcion: "Recarga nevera industrial", NumeroFactura: strPtr("F-0001")},
	{Tipo: model.TipoVentaFacturada, Monto: decimal.NewFromInt(85000), Descripcion: "Mantenimiento aire acondicionado", NumeroFactura: strPtr("F-0002")},
	{Tipo: model.TipoVentaNoFacturada, Monto: decimal.NewFromInt(40000), Descripcion: "Venta de mostrador"},
	{Tipo: model.TipoVentaNoFacturada, Monto: decimal.NewFromInt(25000), Descripcion: "Repuesto"},
	{Tipo: model.TipoOtroIngreso, Monto: decimal.NewFromInt(30000), Descripcion: "Abono en efectivo"},
}

func strPtr(s string) *string { return &s }

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	email := flag.String("email", "admin@refrigas.com", "correo del administrador")
	nombre := flag.String("nombre", "Administrador", "nombre visible")
	conDemo := flag.Bool("demo", false, "registra transacciones de ejemplo para hoy")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	ctx := context.Background()

	if err := upsertAdmin(ctx, db, *email, *nombre); err != nil {
		log.Fatal().Err(err).Msg("upsert error")
	}
	fmt.Printf("Usuario '%s' autorizado como administrador\n", strings.ToLower(*email))

	if !*conDemo {
		return
	}
	clk, err := clock.New(cfg.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid time zone")
	}
	caja := service.NewCajaService(repository.NewCajaRepository(db), clk)
	for _, req := range demo {
		if _, err := caja.RegistrarTransaccion(ctx, nil, req); err != nil {
			log.Fatal().Err(err).Str("descripcion", req.Descripcion).Msg("demo transaction error")
		}
	}
	resumen, err := caja.ResumenDiario(ctx, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("resumen error")
	}
	fmt.Printf("%d transacciones de demo para %s, total %s\n", resumen.CantidadTransacciones, resumen.Fecha, resumen.TotalGeneral.StringFixed(2))
}

// upsertAdmin inserts the allow-list entry or reactivates it as administrator.
func upsertAdmin(ctx context.Context, db *gorm.DB, email, nombre string) error {
	u := model.UsuarioAutorizado{
		Email:  strings.ToLower(strings.TrimSpace(email)),
		Nombre: nombre,
		Rol:    model.RolAdministrador,
		Activo: true,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"nombre", "rol", "activo", "updated_at"}),
	}).Create(&u).Error
}
