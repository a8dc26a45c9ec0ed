package notify

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/approvenow/server/internal/model"
	"github.com/approvenow/server/internal/port/outbound"
)

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	SSL        bool
	SkipVerify bool
	FromEmail  string
	FromName   string
}

// SMTPSender delivers intents as one email per recipient.
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewSMTPSender creates a sender that dials cfg.Host for every batch.
func NewSMTPSender(cfg SMTPConfig, logger *zap.Logger) *SMTPSender {
	if cfg.FromEmail == "" {
		cfg.FromEmail = "noreply@approvenow.app"
	}
	if cfg.FromName == "" {
		cfg.FromName = "Approve Now"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	if cfg.SkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host}
	}

	return &SMTPSender{cfg: cfg, dialer: d, logger: logger}
}

// Send composes the intent and delivers it. gomail does not take a context,
// so a cancelled ctx abandons the wait but not the SMTP session.
func (s *SMTPSender) Send(ctx context.Context, intent *model.NotificationIntent) error {
	msgs, err := s.build(intent)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msgs...)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send %s: %w", intent.Kind, err)
		}
		s.logger.Debug("email sent",
			zap.String("kind", string(intent.Kind)),
			zap.Int("recipients", len(msgs)),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SMTPSender) build(intent *model.NotificationIntent) ([]*gomail.Message, error) {
	composed, err := Compose(intent)
	if err != nil {
		return nil, err
	}

	msgs := make([]*gomail.Message, 0, len(intent.To))
	for _, r := range intent.To {
		if r.Email == "" {
			continue
		}
		m := gomail.NewMessage()
		m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
		m.SetHeader("To", r.Email)
		m.SetHeader("Subject", composed.Subject)
		m.SetHeader("X-Approvenow-Intent", intent.Key)
		m.SetBody("text/plain", composed.Body)
		msgs = append(msgs, m)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("intent %s has no addressed recipients", intent.Key)
	}
	return msgs, nil
}

var _ outbound.NotificationSenderPort = (*SMTPSender)(nil)
