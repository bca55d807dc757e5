package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_ContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &ZapLogger{logger: zap.New(core)}

	ctx := context.WithValue(context.Background(), RunIDKey, "run-123")
	ctx = context.WithValue(ctx, StageKey, "match")
	l.Infof(ctx, "matched %d rows", 7)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e.Message != "matched 7 rows" {
		t.Errorf("message = %q", e.Message)
	}
	fields := e.ContextMap()
	if fields["run_id"] != "run-123" || fields["stage"] != "match" {
		t.Errorf("context fields = %v", fields)
	}
}

func TestZapLogger_NoContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &ZapLogger{logger: zap.New(core)}

	l.Infof(context.Background(), "plain")
	if got := logs.All()[0].ContextMap(); len(got) != 0 {
		t.Errorf("bare context must add no fields, got %v", got)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	l, err := New("warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Debug below the configured level is a no-op; just exercise the paths.
	l.Debugf(context.Background(), "invisible")
	l.Warnf(context.Background(), "visible")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Infof(context.Background(), "discarded %d", 1)
	if err := l.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}
