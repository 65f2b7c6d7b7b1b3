package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer is a basic transport that logs messages instead of delivering
// them. Used in development and dry runs.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a logging transport.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the message and returns nil to indicate success.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Msg("email delivered to log transport")
	return nil
}
