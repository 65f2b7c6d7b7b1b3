package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridMailer delivers messages through the SendGrid v3 API.
type SendgridMailer struct {
	key    string
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewSendgridMailer constructs a SendGrid-backed mailer.
func NewSendgridMailer(apiKey, fromName, fromEmail string, logger zerolog.Logger) (*SendgridMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("sender email is required")
	}

	return &SendgridMailer{
		key:    apiKey,
		from:   sgmail.NewEmail(fromName, fromEmail),
		logger: logger.With().Str("component", "sendgrid_mailer").Logger(),
	}, nil
}

// Send delivers a single message, returning an error on any non-2xx response.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	personalization := sgmail.NewPersonalization()
	personalization.Subject = msg.Subject
	personalization.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(personalization)
	v3.AddContent(
		sgmail.NewContent("text/plain", msg.TextBody),
		sgmail.NewContent("text/html", msg.HTMLBody),
	)

	request := sendgrid.GetRequest(m.key, sendgridEndpoint, sendgridHost)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(v3)

	response, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		m.logger.Warn().Int("status", response.StatusCode).Msg("sendgrid rejected message")
		return fmt.Errorf("sendgrid send: status %d", response.StatusCode)
	}

	return nil
}
