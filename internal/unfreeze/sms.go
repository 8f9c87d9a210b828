package unfreeze

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/fraudguard/riskengine/pkg/config"
	"github.com/fraudguard/riskengine/pkg/resilience"
)

// SMSSender delivers verification codes over Twilio SMS. Calls go
// through a circuit breaker so a degraded provider cannot pile up
// blocked requests.
type SMSSender struct {
	client   *twilio.RestClient
	from     string
	contacts ContactDirectory
	breaker  *resilience.CircuitBreaker
}

// NewSMSSender builds a Twilio-backed sender.
func NewSMSSender(cfg *config.TwilioConfig, contacts ContactDirectory, breaker *resilience.CircuitBreaker) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{
		client:   client,
		from:     cfg.FromNumber,
		contacts: contacts,
		breaker:  breaker,
	}
}

func (s *SMSSender) Send(ctx context.Context, subjectID, code string) error {
	phone, err := s.contacts.Phone(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("resolving phone number: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code)

	send := func(ctx context.Context) (interface{}, error) {
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(phone)
		params.SetFrom(s.from)
		params.SetBody(body)
		return s.client.Api.CreateMessage(params)
	}

	if s.breaker != nil {
		_, err = s.breaker.Execute(ctx, send)
	} else {
		_, err = send(ctx)
	}
	if err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	return nil
}
