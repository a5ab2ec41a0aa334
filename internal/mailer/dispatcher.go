package mailer

import (
	"context"
	"log/slog"
	"time"
)

const (
	queueSize   = 64
	sendTimeout = 15 * time.Second
)

// Dispatcher decouples mail delivery from request handling. Handlers
// enqueue and move on; a delivery failure is logged and never fails the
// request that produced it.
type Dispatcher struct {
	mailer Mailer
	logger *slog.Logger
	queue  chan Message
}

func NewDispatcher(mailer Mailer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan Message, queueSize),
	}
}

// Enqueue never blocks. A full queue drops the message with a warning
// rather than stalling the calling request.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Warn("mail queue full, dropping message",
			"to", msg.To,
			"subject", msg.Subject,
		)
	}
}

// Start launches the delivery loop. It stops when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-d.queue:
				sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
				if err := d.mailer.Send(sendCtx, msg); err != nil {
					d.logger.Error("mail send failed",
						"to", msg.To,
						"subject", msg.Subject,
						"error", err,
					)
				}
				cancel()
			}
		}
	}()
}
