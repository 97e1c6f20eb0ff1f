package logger

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// A SentryLogger wraps a Logger, shipping Warn and above to Sentry.
type SentryLogger struct {
	l Logger
}

// NewSentryLogger constructs a SentryLogger based off the provided BaseLogger.
//
// If Sentry cannot be initialized, the provided BaseLogger returns unwrapped.
func NewSentryLogger(bl *BaseLogger, dsn, env string) Logger {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:          dsn,
		Environment:  env,
		IgnoreErrors: []string{"write: broken pipe"},
	})
	if err != nil {
		bl.Error(fmt.Sprintf("unable to init Sentry: %s", err), nil)
		return bl
	}

	// one extra frame for the forwarding methods below
	return &SentryLogger{l: bl.AddSkip(1 + bl.Skip())}
}

// Debug writes a debug log.
func (sl *SentryLogger) Debug(msg string, ctx *LogContext) { sl.l.Debug(msg, ctx) }

// Info writes an info log.
func (sl *SentryLogger) Info(msg string, ctx *LogContext) { sl.l.Info(msg, ctx) }

// Error writes an error log and sends it to Sentry.
func (sl *SentryLogger) Error(msg string, ctx *LogContext) {
	sl.l.Error(msg, ctx)
	sl.send(sentry.LevelError, msg, ctx)
}

// Fatal writes a fatal log and sends it to Sentry.
func (sl *SentryLogger) Fatal(msg string, ctx *LogContext) {
	sl.send(sentry.LevelFatal, msg, ctx)
	sl.l.Fatal(msg, ctx)
}

// Warn writes a warning log and sends it to Sentry.
func (sl *SentryLogger) Warn(msg string, ctx *LogContext) {
	sl.l.Warn(msg, ctx)
	sl.send(sentry.LevelWarning, msg, ctx)
}

// LogLevel returns the LogLevel set for the wrapped Logger.
func (sl *SentryLogger) LogLevel() LogLevel { return sl.l.LogLevel() }

// send ships the LogContext.Error to Sentry,
// including any additional data from LogContext.
func (sl *SentryLogger) send(level sentry.Level, msg string, ctx *LogContext) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)

		if ctx != nil {
			if ctx.Data != nil {
				scope.SetContext("data", ctx.Data)
			}

			if ctx.Request != nil {
				scope.SetRequest(ctx.Request)
			}

			if ctx.User != nil {
				scope.SetUser(sentry.User{
					ID:    fmt.Sprint(ctx.User.GetID()),
					Email: ctx.User.GetEmail(),
				})
			}
		}

		if ctx != nil && ctx.Error != nil {
			sentry.CaptureException(ctx.Error)
			return
		}

		sentry.CaptureMessage(msg)
	})

	sentry.Flush(2 * time.Second)
}
