package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"refrigas/internal/service"

	"github.com/rs/zerolog/log"
)

// VerificacionHandler runs the overdue-debt scan for a queued job. Individual
// send failures are part of the result; only a failure to run the scan at
// all is returned for retry.
func VerificacionHandler(svc service.NotificacionService) Handler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload VerificacionPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("payload verificacion: %w", err)
		}
		res, err := svc.VerificarDeudasVencidas(ctx)
		if err != nil {
			return err
		}
		log.Info().
			Str("fecha", payload.Fecha).
			Int("deudas", res.TotalDeudas).
			Int("enviadas", res.Enviadas).
			Int("fallidas", res.Fallidas).
			Msg("verificacion de deudas vencidas completada")
		return nil
	}
}
