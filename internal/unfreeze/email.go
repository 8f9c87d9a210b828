package unfreeze

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/fraudguard/riskengine/pkg/config"
	"github.com/fraudguard/riskengine/pkg/resilience"
)

// EmailSender delivers verification codes over SMTP.
type EmailSender struct {
	cfg      *config.SMTPConfig
	contacts ContactDirectory
	breaker  *resilience.CircuitBreaker
}

// NewEmailSender builds an SMTP-backed sender.
func NewEmailSender(cfg *config.SMTPConfig, contacts ContactDirectory, breaker *resilience.CircuitBreaker) *EmailSender {
	return &EmailSender{cfg: cfg, contacts: contacts, breaker: breaker}
}

func (s *EmailSender) Send(ctx context.Context, subjectID, code string) error {
	to, err := s.contacts.Email(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("resolving email address: %w", err)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Your verification code\r\n\r\n"+
			"Your verification code is %s. It expires in 5 minutes.\r\n",
		s.cfg.From, to, code))

	send := func(ctx context.Context) (interface{}, error) {
		addr := s.cfg.Host + ":" + s.cfg.Port
		var auth smtp.Auth
		if s.cfg.Username != "" {
			auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		}
		return nil, smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg)
	}

	if s.breaker != nil {
		_, err = s.breaker.Execute(ctx, send)
	} else {
		_, err = send(ctx)
	}
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
