package core

import (
	"context"
	"log/slog"
	"time"
)

// Logger is the minimal structured logging contract consumed by the service.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger to the service logging contract. A nil
// logger falls back to slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// MetricsRecorder receives per-operation timing and outcome signals from the
// service façade.
type MetricsRecorder interface {
	RecordDuration(ctx context.Context, operation string, d time.Duration)
	RecordResult(ctx context.Context, operation, status string)
}

type noopMetrics struct{}

func (noopMetrics) RecordDuration(context.Context, string, time.Duration) {}
func (noopMetrics) RecordResult(context.Context, string, string)         {}

// NewNoopMetricsRecorder returns a recorder that drops all signals.
func NewNoopMetricsRecorder() MetricsRecorder { return noopMetrics{} }

// Clock abstracts time for deterministic scheduling tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a UTC wall clock.
func SystemClock() Clock { return systemClock{} }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
