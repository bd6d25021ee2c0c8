package infra

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"refrigas/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends multipart (text + HTML) messages through a pooled SMTP
// connection. Every send is bounded by the configured timeout or the caller's
// deadline, whichever comes first, and goes through a circuit breaker so a
// dead SMTP server fails fast during a notification batch.
type Mailer struct {
	from    string
	pool    *email.Pool
	timeout time.Duration
	cb      *CircuitBreaker
}

func NewMailer(cfg *config.Config) (*Mailer, error) {
	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	pool, err := email.NewPool(fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort), 4, auth)
	if err != nil {
		return nil, fmt.Errorf("mailer: pool: %w", err)
	}
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Mailer{
		from:    from,
		pool:    pool,
		timeout: cfg.SMTPTimeout(),
		cb:      NewCircuitBreaker(DefaultCBConfig()),
	}, nil
}

func (m *Mailer) Send(ctx context.Context, to, asunto, html, texto string) error {
	timeout := m.timeout
	if dl, ok := ctx.Deadline(); ok {
		if rest := time.Until(dl); rest < timeout {
			timeout = rest
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = asunto
	e.Text = []byte(texto)
	e.HTML = []byte(html)

	return m.cb.Execute(func() error {
		if err := m.pool.Send(e, timeout); err != nil {
			return fmt.Errorf("mailer: send to %s: %w", to, err)
		}
		return nil
	})
}

// Breaker exposes the circuit state for the health endpoint.
func (m *Mailer) Breaker() *CircuitBreaker { return m.cb }

func (m *Mailer) Close() { m.pool.Close() }
