package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"refrigas/internal/clock"
	"refrigas/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotificaciones = "jobs:notificaciones"

	JobVerificarDeudas = "verificar_deudas"

	MaxJobAttempts = 3

	// The daily marker outlives the day so a late replica still sees it.
	dedupeTTL = 36 * time.Hour
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// VerificacionPayload identifies the business day a scan was requested for.
type VerificacionPayload struct {
	Fecha string `json:"fecha"`
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb   *redis.Client
	clock *clock.Clock
}

func NewDispatcher(rdb *redis.Client, clk *clock.Clock) *Dispatcher {
	return &Dispatcher{rdb: rdb, clock: clk}
}

// EnqueueVerificacion queues today's overdue scan at most once per business
// day, however many replicas fire their timer. It reports whether this call
// was the one that queued it.
func (d *Dispatcher) EnqueueVerificacion(ctx context.Context) (bool, error) {
	fecha := clock.FormatDate(d.clock.Today())
	ok, err := d.rdb.SetNX(ctx, "jobs:"+JobVerificarDeudas+":"+fecha, 1, dedupeTTL).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe verificacion: %w", err)
	}
	if !ok {
		log.Debug().Str("fecha", fecha).Msg("verificacion ya encolada hoy")
		return false, nil
	}
	if err := d.enqueue(ctx, QueueNotificaciones, JobVerificarDeudas, VerificacionPayload{Fecha: fecha}); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ──────────────────────────────────────────────────────────────────────

// Handler runs one job. A returned error is retried with backoff.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes the notification queue with a fixed number of goroutines.
type Pool struct {
	rdb       *redis.Client
	dlq       DeadLetter
	handlers  map[string]Handler
	retryBase time.Duration
	wg        sync.WaitGroup
}

func NewPool(rdb *redis.Client, dlq DeadLetter) *Pool {
	return &Pool{rdb: rdb, dlq: dlq, handlers: map[string]Handler{}, retryBase: time.Second}
}

// Handle registers the handler for a job type. Call before Start.
func (p *Pool) Handle(jobType string, h Handler) { p.handlers[jobType] = h }

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		if ctx.Err() != nil {
			log.Info().Msgf("worker %d shutting down", id)
			return
		}
		// Blocking pop; waits up to 5s then loops to check ctx
		result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueNotificaciones).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Error().Err(err).Int("worker", id).Msg("brpop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.process(ctx, result[0], result[1])
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.deadLetter(ctx, queue, "unknown", json.RawMessage(raw), "payload invalido: "+err.Error(), 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		log.Error().Str("type", job.Type).Msg("no handler for job type")
		p.deadLetter(ctx, queue, job.Type, job.Payload, "tipo de job desconocido", 0)
		return
	}

	log.Info().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	attempts := 0
	err := withRetry(ctx, MaxJobAttempts, p.retryBase, func(attempt int) error {
		attempts = attempt + 1
		return h(ctx, job.Payload)
	})
	if err != nil {
		metrics.JobsProcesados.WithLabelValues(job.Type, "fallido").Inc()
		p.deadLetter(ctx, queue, job.Type, job.Payload, err.Error(), attempts)
		return
	}
	metrics.JobsProcesados.WithLabelValues(job.Type, "ok").Inc()
}

func (p *Pool) deadLetter(ctx context.Context, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}
	if err := p.dlq.Send(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to push entry")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}
