package identity

import (
	"context"

	"github.com/outpost-labs/basecamp/logger"
)

// An Email is a message the identity workflows ask to have delivered.
type Email struct {
	To      string
	Subject string
	Body    string
}

// An EmailSender delivers identity workflow emails
// (confirmation links, password resets, two-factor codes).
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// NoopSender satisfies the EmailSender dependency without delivering anything.
//
// It is the default so a starter app boots before outbound email exists.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Email) error { return nil }

// LogSender writes emails to the log instead of delivering them,
// fitting local iteration.
type LogSender struct {
	l logger.Logger
}

func NewLogSender(l logger.Logger) LogSender { return LogSender{l: l} }

func (s LogSender) Send(_ context.Context, email Email) error {
	s.l.Info("outbound email", &logger.LogContext{Data: map[string]any{
		"to":      email.To,
		"subject": email.Subject,
		"body":    email.Body,
	}})

	return nil
}
