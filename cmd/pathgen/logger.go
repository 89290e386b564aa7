package main

import (
	"io"

	paths "github.com/goliatone/go-paths"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(level, format string, w io.Writer) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.WarnLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapLevel)
	return zap.New(core)
}

// zapLogger reports build and evaluation events through zap.
type zapLogger struct {
	logger *zap.Logger
}

var (
	_ paths.BuildLogger     = zapLogger{}
	_ paths.EvaluatorLogger = zapLogger{}
)

func (l zapLogger) LogBuild(event paths.BuildLogEvent) {
	fields := []zap.Field{
		zap.String("build_id", event.BuildID),
		zap.String("base_path", event.BasePath),
		zap.Int("leaves", event.Leaves),
		zap.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		l.logger.Error("paths build failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.logger.Info("paths built", fields...)
}

func (l zapLogger) LogEvaluation(event paths.EvaluatorLogEvent) {
	fields := []zap.Field{
		zap.String("engine", event.Engine),
		zap.String("expr", event.Expr),
		zap.String("scope", event.Scope),
		zap.Duration("duration", event.Duration),
	}
	if event.Err != nil {
		l.logger.Error("paths evaluation failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.logger.Debug("paths evaluated", fields...)
}
