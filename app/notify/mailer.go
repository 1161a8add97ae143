package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var _ Mailer = (*SMTPMailer)(nil)

type SMTPMailer struct {
	dialer dialer
	from   string
}

func NewSMTPMailer(host string, port int, user, password, from string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if from == "" {
		return nil, fmt.Errorf("from email address is required")
	}

	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
	}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent", "to", to, "subject", subject)
	return nil
}
