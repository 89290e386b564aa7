package paths

import (
	"context"
	"log/slog"
	"time"
)

// BuildLogEvent describes a completed (or failed) build.
type BuildLogEvent struct {
	BuildID  string
	BasePath string
	Leaves   int
	Duration time.Duration
	Err      error
}

// BuildLogger records build events.
type BuildLogger interface {
	LogBuild(BuildLogEvent)
}

// BuildLoggerFunc adapts a function to BuildLogger.
type BuildLoggerFunc func(BuildLogEvent)

// LogBuild implements BuildLogger.
func (f BuildLoggerFunc) LogBuild(event BuildLogEvent) {
	if f != nil {
		f(event)
	}
}

// EvaluatorLogEvent describes an evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogBuild(BuildLogEvent) {}

func (noopLogger) LogEvaluation(EvaluatorLogEvent) {}

// SlogLogger reports build and evaluation events to logger. Failures log at
// error level, everything else at debug.
func SlogLogger(logger *slog.Logger) interface {
	BuildLogger
	EvaluatorLogger
} {
	if logger == nil {
		return noopLogger{}
	}
	return slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l slogLogger) LogBuild(event BuildLogEvent) {
	attrs := []slog.Attr{
		slog.String("build_id", event.BuildID),
		slog.String("base_path", event.BasePath),
		slog.Int("leaves", event.Leaves),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
		l.logger.LogAttrs(context.Background(), slog.LevelError, "paths build failed", attrs...)
		return
	}
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, "paths built", attrs...)
}

func (l slogLogger) LogEvaluation(event EvaluatorLogEvent) {
	attrs := []slog.Attr{
		slog.String("engine", event.Engine),
		slog.String("expr", event.Expr),
		slog.String("scope", event.Scope),
		slog.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		attrs = append(attrs, slog.Any("error", event.Err))
		l.logger.LogAttrs(context.Background(), slog.LevelError, "paths evaluation failed", attrs...)
		return
	}
	l.logger.LogAttrs(context.Background(), slog.LevelDebug, "paths evaluated", attrs...)
}

// WithLogger attaches a build logger. Loggers that also implement
// EvaluatorLogger receive evaluation events unless WithEvaluatorLogger
// overrides them.
func WithLogger(logger BuildLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
		if evalLogger, ok := logger.(EvaluatorLogger); ok && cfg.evalLogger == nil {
			cfg.evalLogger = evalLogger
		}
	}
}

// WithEvaluatorLogger attaches an evaluator logger.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.evalLogger = noopLogger{}
			return
		}
		cfg.evalLogger = logger
	}
}
