package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// RunIDKey carries the analysis run identifier.
	RunIDKey ContextKey = "run_id"
	// StageKey carries the pipeline stage name (match, features, score).
	StageKey ContextKey = "stage"
)

// Logger is the logging surface used by the pipeline and commands.
type Logger interface {
	Debugf(ctx context.Context, format string, args ...interface{})
	Infof(ctx context.Context, format string, args ...interface{})
	Warnf(ctx context.Context, format string, args ...interface{})
	Errorf(ctx context.Context, format string, args ...interface{})
	Sync() error
}

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

// New creates a zap-backed logger at the given level ("debug", "info",
// "warn", "error"; anything else defaults to info).
func New(level string) (Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: l}, nil
}

func (l *ZapLogger) extractFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	if stage, ok := ctx.Value(StageKey).(string); ok && stage != "" {
		fields = append(fields, zap.String("stage", stage))
	}
	return fields
}

func (l *ZapLogger) Debugf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Infof(ctx context.Context, format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Warnf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Errorf(ctx context.Context, format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), l.extractFields(ctx)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// NopLogger discards everything. Library callers that don't configure
// logging get this by default.
type NopLogger struct{}

func NewNop() Logger { return NopLogger{} }

func (NopLogger) Debugf(context.Context, string, ...interface{}) {}
func (NopLogger) Infof(context.Context, string, ...interface{})  {}
func (NopLogger) Warnf(context.Context, string, ...interface{})  {}
func (NopLogger) Errorf(context.Context, string, ...interface{}) {}
func (NopLogger) Sync() error                                    { return nil }
