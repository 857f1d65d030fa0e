package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"plantcore/pkg/domain"
)

type captureLogger struct {
	messages []string
}

func (c *captureLogger) Info(msg string, _ ...any) {
	c.messages = append(c.messages, msg)
}

func TestLogDispatcherRecordsActivity(t *testing.T) {
	logger := &captureLogger{}
	d := NewLog(logger)
	ctx := context.Background()

	if err := d.Schedule(ctx, 1, time.Now(), Payload{PlantName: "Fern", TaskType: domain.TaskMisting}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := d.Cancel(ctx, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(logger.messages) != 2 || logger.messages[0] != "reminder scheduled" || logger.messages[1] != "reminder cancelled" {
		t.Fatalf("unexpected log lines: %v", logger.messages)
	}

	if err := d.Schedule(ctx, -1, time.Now(), Payload{}); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}
