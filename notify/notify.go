// Package notify delivers out-of-band messages such as two-factor codes.
//
// The core only depends on Sender. Throttled bounds the outbound rate with a
// token bucket and LogSender records deliveries for local development.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"
)

// ErrRejected wraps failures reported by a Sender.
var ErrRejected = errors.New("message not delivered")

// Message is one outbound notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Throttled limits the rate at which messages reach the wrapped sender. Send
// waits for a token until ctx is done.
type Throttled struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottled allows perSecond messages per second with the given burst.
func NewThrottled(next Sender, perSecond float64, burst int) (*Throttled, error) {
	if next == nil {
		return nil, errors.New("notify sender is required")
	}
	if perSecond <= 0 || burst < 1 {
		return nil, errors.New("notify rate and burst must be positive")
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}, nil
}

func (t *Throttled) Send(ctx context.Context, msg Message) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return t.next.Send(ctx, msg)
}

// LogSender writes the recipient and subject of each message to a logger. The
// body is never logged.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// TwoFactorMessage builds the login code notification.
func TwoFactorMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Your login code",
		Body:    "Your one-time login code is " + code + ". It expires in a few minutes.",
	}
}
