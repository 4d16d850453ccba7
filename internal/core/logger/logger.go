package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

type Level slog.Level

var (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

var defaultLevel = LevelInfo

func SetDefaultLevel(level Level) {
	defaultLevel = level
}

// ParseLevel maps debug, info, warn and error (any case) to a Level; anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type HandlerOption func(*tint.Options)

func WithTimeFormat(format string) HandlerOption {
	return func(opts *tint.Options) {
		opts.TimeFormat = format
	}
}

func WithNoColor(noColor bool) HandlerOption {
	return func(opts *tint.Options) {
		opts.NoColor = noColor
	}
}

func NewHandlerOptions(w io.Writer, opts ...HandlerOption) *tint.Options {
	isTerminal := false
	if f, ok := w.(*os.File); ok {
		isTerminal = isatty.IsTerminal(f.Fd())
	}
	timeFormat := time.Stamp
	if !isTerminal {
		timeFormat = time.RFC3339
	}
	tintOpts := &tint.Options{
		Level:      slog.Level(defaultLevel),
		NoColor:    !isTerminal,
		TimeFormat: timeFormat,
	}
	for _, opt := range opts {
		opt(tintOpts)
	}
	return tintOpts
}

type LoggerOption func(*Logger)

func WithName(name string) LoggerOption {
	return func(l *Logger) {
		l.name = name
	}
}

func WithLevel(level Level) LoggerOption {
	return func(l *Logger) {
		l.level = level
	}
}

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) LoggerOption {
	return func(l *Logger) {
		l.out = w
	}
}

func WithHandler(handler slog.Handler) LoggerOption {
	return func(l *Logger) {
		l.handler = handler
	}
}

func WithHandlerOptions(opts ...HandlerOption) LoggerOption {
	return func(l *Logger) {
		l.opts = append(l.opts, opts...)
	}
}

// Logger is a named slog logger with a tint handler
type Logger struct {
	*slog.Logger
	level   Level
	handler slog.Handler
	name    string
	out     io.Writer
	opts    []HandlerOption
}

// NewLogger creates a new logger instance
func NewLogger(opts ...LoggerOption) *Logger {
	l := &Logger{
		name:  "dragonmasher",
		level: defaultLevel,
		out:   os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.handler == nil {
		handlerOpts := append(l.opts, func(tintOpts *tint.Options) {
			tintOpts.Level = slog.Level(l.level)
		})
		l.handler = tint.NewHandler(l.out, NewHandlerOptions(l.out, handlerOpts...))
	}
	l.Logger = slog.New(l.handler).With(slog.String("component", l.name))
	return l
}

// Named returns a child logger for a sub-component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Logger:  slog.New(l.handler).With(slog.String("component", name)),
		level:   l.level,
		handler: l.handler,
		name:    name,
		out:     l.out,
		opts:    l.opts,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(WithWriter(io.Discard), WithLevel(LevelError+4))
}

func (l *Logger) Fatal(msg string, args ...any) {
	l.Logger.Error(msg, args...)
	os.Exit(1)
}
