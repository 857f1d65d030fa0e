package notify

import (
	"context"
	"time"

	"plantcore/pkg/domain"
)

// Logger is the minimal logging contract the log dispatcher needs. The core
// service logger satisfies it.
type Logger interface {
	Info(msg string, args ...any)
}

// Log implements Dispatcher by writing schedule and cancel intents to a
// logger. Useful in environments where the platform notification bridge is
// absent but reminder activity should still be visible.
type Log struct {
	logger Logger
}

// NewLog returns a dispatcher that records reminder activity via logger.
func NewLog(logger Logger) *Log {
	return &Log{logger: logger}
}

// Schedule logs the reminder intent.
func (l *Log) Schedule(_ context.Context, slot int, fireAt time.Time, payload Payload) error {
	if slot < 0 || slot >= domain.SlotCeiling {
		return ErrInvalidSlot
	}
	l.logger.Info("reminder scheduled",
		"slot", slot,
		"fire_at", fireAt.UTC().Format(time.RFC3339),
		"plant", payload.PlantName,
		"task_type", string(payload.TaskType),
	)
	return nil
}

// Cancel logs the cancellation.
func (l *Log) Cancel(_ context.Context, slot int) error {
	l.logger.Info("reminder cancelled", "slot", slot)
	return nil
}

var _ Dispatcher = (*Log)(nil)
