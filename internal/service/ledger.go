package service

import (
	"context"
	"errors"
	"fmt"

	"refrigas/internal/apierror"
	"refrigas/internal/clock"
	"refrigas/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ── Ledger rules ──────────────────────────────────────────────────────────────
// Every function here works on a debt with its payments already loaded.

// TotalAbonado sums the payments made against d.
func TotalAbonado(d *model.Deuda) decimal.Decimal {
	total := decimal.Zero
	for _, a := range d.Abonos {
		total = total.Add(a.Monto)
	}
	return total
}

// SaldoRestante is the principal minus every payment. It can go negative only
// through data entered outside the payment path.
func SaldoRestante(d *model.Deuda) decimal.Decimal {
	return d.Monto.Sub(TotalAbonado(d))
}

// EstaVencida is true only for an unpaid debt with a positive balance whose
// due date is strictly before hoy.
func EstaVencida(d *model.Deuda, hoy datatypes.Date) bool {
	if d.FechaVencimiento == nil || d.Pagada {
		return false
	}
	if !SaldoRestante(d).IsPositive() {
		return false
	}
	return clock.Before(*d.FechaVencimiento, hoy)
}

// DiasVencidos counts days past the due date; zero when not overdue.
func DiasVencidos(d *model.Deuda, hoy datatypes.Date) int {
	if !EstaVencida(d, hoy) {
		return 0
	}
	return clock.DaysBetween(*d.FechaVencimiento, hoy)
}

// validarMonto rejects non-positive amounts and amounts with sub-cent digits.
func validarMonto(m decimal.Decimal, msgNoPositivo string) error {
	if !m.IsPositive() {
		return apierror.Validation(msgNoPositivo)
	}
	if !m.Equal(m.Round(2)) {
		return apierror.Validation("El monto no puede tener más de dos decimales.")
	}
	return nil
}

// ── Shared helpers ────────────────────────────────────────────────────────────

// runTx executes fn inside a GORM transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// notFound converts gorm.ErrRecordNotFound into a NotFound domain error and
// wraps anything else.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func formatFechaPtr(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := clock.FormatDate(*d)
	return &s
}
