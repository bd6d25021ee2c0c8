package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Encolador is the part of Dispatcher the scheduler needs.
type Encolador interface {
	EnqueueVerificacion(ctx context.Context) (bool, error)
}

// Scheduler fires the daily overdue scan on a cron expression evaluated in
// the business time zone. It only enqueues; the pool does the work.
type Scheduler struct {
	cron      *cron.Cron
	encolador Encolador
}

func NewScheduler(encolador Encolador, loc *time.Location) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		encolador: encolador,
	}
}

// Start registers the job and starts the timer. spec uses the standard
// five-field format, e.g. "0 8 * * *".
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("spec", spec).Msg("scheduler: started")
	return nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	encolado, err := s.encolador.EnqueueVerificacion(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: no se pudo encolar la verificacion")
		return
	}
	log.Info().Bool("encolado", encolado).Msg("scheduler: verificacion disparada")
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler: stopped")
}
