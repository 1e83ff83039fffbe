package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/pkg/circuitbreaker"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
)

// Mailer hands a fully built message to a transport.
type Mailer interface {
	Send(ctx context.Context, msg *model.EmailMessage) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer sends through an SMTP relay. A run of failures opens the
// breaker so a dead relay does not stall every caller.
type SMTPMailer struct {
	dialer *gomail.Dialer
	cb     *circuitbreaker.CircuitBreaker
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

func buildMessage(msg *model.EmailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.From.Email, msg.From.Name)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	return m
}

func (s *SMTPMailer) Send(ctx context.Context, msg *model.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.cb.Execute(func() error {
		if err := s.dialer.DialAndSend(buildMessage(msg)); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	})
}

// LogMailer only logs the envelope. The body is never logged because it
// may carry a redemption link.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (l *LogMailer) Send(ctx context.Context, msg *model.EmailMessage) error {
	l.log.Info("Email not sent, SMTP is not configured",
		"template", string(msg.Template),
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// RecordingMailer keeps sent messages in memory.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []model.EmailMessage
	Err  error
}

func (r *RecordingMailer) Send(ctx context.Context, msg *model.EmailMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, *msg)
	return nil
}

func (r *RecordingMailer) Sent() []model.EmailMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.EmailMessage(nil), r.sent...)
}
