package mailer

import (
	"context"
	"log/slog"
)

// Message is a fully-rendered outbound notification. The auth handlers own
// the content; the mailer owns transport.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Log is a development stand-in used when no SMTP host is configured. It
// records that a send would have happened without the body, so reset
// tokens never land in logs through this path.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Send(_ context.Context, msg Message) error {
	l.Logger.Info("mail suppressed: no SMTP host configured",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
