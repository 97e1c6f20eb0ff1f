// Package logger exposes a leveled Logger for basecamp applications
// and implementations fitting development and deployed environments.
package logger

import (
	"fmt"
	"log"
	"os"
	"path"
	"runtime"

	"github.com/fatih/color"
)

// frames between the public level methods and the call site being logged.
const knownFrames = 2

// The Logger interface defines the levels a logging can occur at.
type Logger interface {
	Debug(msg string, ctx *LogContext)
	Error(msg string, ctx *LogContext)
	Fatal(msg string, ctx *LogContext)
	Info(msg string, ctx *LogContext)
	Warn(msg string, ctx *LogContext)

	LogLevel() LogLevel
}

type LogLevel int

const (
	LogLevelUnk LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

func NewLogLevel(val string) LogLevel {
	switch val {
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	case "FATAL":
		return LogLevelFatal
	default:
		return LogLevelUnk
	}
}

func (ll LogLevel) String() string {
	return map[LogLevel]string{
		LogLevelDebug: "[DEBUG]",
		LogLevelInfo:  "[INFO]",
		LogLevelWarn:  "[WARN]",
		LogLevelError: "[ERROR]",
		LogLevelFatal: "[FATAL]",
		LogLevelUnk:   "[UNK]",
	}[ll]
}

// BaseLogger implements Logger atop the standard library log package,
// colorizing levels for local iteration.
type BaseLogger struct {
	colorized bool
	l         *log.Logger
	ll        LogLevel
	skip      int
}

// New constructs a BaseLogger.
//
// Logs are printed to os.Stdout using the std lib log pkg.
// The default log level is INFO.
func New(opts ...LoggerOptFn) *BaseLogger {
	l := &BaseLogger{
		l:  log.New(os.Stdout, "", log.LstdFlags),
		ll: LogLevelInfo,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// A LoggerOptFn configures the BaseLogger under construction.
type LoggerOptFn func(*BaseLogger)

// WithColor turns on colorized log levels, appropriate for a terminal.
func WithColor() LoggerOptFn {
	return func(l *BaseLogger) { l.colorized = true }
}

// WithLevel sets the minimum LogLevel emitted.
func WithLevel(ll LogLevel) LoggerOptFn {
	return func(l *BaseLogger) {
		if ll != LogLevelUnk {
			l.ll = ll
		}
	}
}

// WithLogger replaces the backing *log.Logger.
func WithLogger(logger *log.Logger) LoggerOptFn {
	return func(l *BaseLogger) { l.l = logger }
}

// Debug writes a debug log.
func (l *BaseLogger) Debug(msg string, ctx *LogContext) {
	if l.ll > LogLevelDebug {
		return
	}

	l.log(color.WhiteString, LogLevelDebug, msg, ctx)
}

// Error writes an error log.
func (l *BaseLogger) Error(msg string, ctx *LogContext) {
	if l.ll > LogLevelError {
		return
	}

	l.log(color.RedString, LogLevelError, msg, ctx)
}

// Fatal writes a fatal log and exits.
func (l *BaseLogger) Fatal(msg string, ctx *LogContext) {
	l.log(color.MagentaString, LogLevelFatal, msg, ctx)
	os.Exit(1)
}

// Info writes an info log.
func (l *BaseLogger) Info(msg string, ctx *LogContext) {
	if l.ll > LogLevelInfo {
		return
	}

	l.log(color.BlueString, LogLevelInfo, msg, ctx)
}

// Warn writes a warning log.
func (l *BaseLogger) Warn(msg string, ctx *LogContext) {
	if l.ll > LogLevelWarn {
		return
	}

	l.log(color.YellowString, LogLevelWarn, msg, ctx)
}

// LogLevel returns the LogLevel set for the BaseLogger.
func (l *BaseLogger) LogLevel() LogLevel { return l.ll }

// AddSkip replaces the number of additional frames to scroll back
// when ascertaining the call site of a log message.
//
// Use Skip to get the current amount when needing to add to it.
func (l *BaseLogger) AddSkip(i int) *BaseLogger {
	newl := *l
	newl.skip = i
	return &newl
}

// Skip returns the current amount of additional frames to scroll back
// when logging a message.
func (l *BaseLogger) Skip() int { return l.skip }

// log executes printing the log message,
// prefixed by the call site, including any context if available.
func (l *BaseLogger) log(colorizer func(string, ...any) string, level LogLevel, msg string, ctx *LogContext) {
	_, file, line, _ := runtime.Caller(knownFrames + l.skip)
	caller := fmt.Sprintf("%s:%d", immediateFilepath(file), line)

	if l.colorized {
		msg = colorizer("%s %s '%s'", level, caller, msg)
	} else {
		msg = fmt.Sprintf("%s %s '%s'", level, caller, msg)
	}

	if ctx == nil {
		l.l.Println(msg)
		return
	}

	l.l.Println(msg, "log_context:", ctx)
}

// immediateFilepath shortens a full file path to the file and the directory it is in,
// e.g., /home/me/my-project/main.go => my-project/main.go
func immediateFilepath(file string) string {
	fullPath, file := path.Split(file)
	return path.Base(fullPath) + string(os.PathSeparator) + file
}
