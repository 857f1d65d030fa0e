package core

import (
	"errors"
	"testing"
	"time"

	"plantcore/pkg/domain"
)

var week = 7 * 24 * time.Hour

func date(day int) time.Time {
	return time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC)
}

func TestNextPeriodLateCompletionCatchesUp(t *testing.T) {
	prev := domain.TaskPeriod{Start: date(1), Due: date(8)}
	next := NextPeriod(prev, week, date(10))
	if !next.Start.Equal(date(10)) {
		t.Fatalf("expected start Jan 10, got %v", next.Start)
	}
	if !next.Due.Equal(date(17)) {
		t.Fatalf("expected due Jan 17, got %v", next.Due)
	}
}

func TestNextPeriodEarlyCompletionKeepsCadence(t *testing.T) {
	prev := domain.TaskPeriod{Start: date(1), Due: date(8)}
	next := NextPeriod(prev, week, date(5))
	if !next.Start.Equal(date(8)) {
		t.Fatalf("early completion must not regress the cadence: start %v", next.Start)
	}
	if !next.Due.Equal(date(15)) {
		t.Fatalf("expected due Jan 15, got %v", next.Due)
	}
}

func TestNextPeriodIsMonotonic(t *testing.T) {
	prev := domain.TaskPeriod{Start: date(1), Due: date(8)}
	for _, now := range []time.Time{date(2), date(8), date(9), date(30)} {
		next := NextPeriod(prev, week, now)
		if !next.Due.After(prev.Due) {
			t.Fatalf("due date regressed for now=%v: %v <= %v", now, next.Due, prev.Due)
		}
	}
}

func TestAdvanceTaskPreservesNotificationSlot(t *testing.T) {
	slot := 5
	task := domain.Task{
		ID:               "t1",
		Type:             domain.TaskWatering,
		Interval:         week,
		Period:           domain.TaskPeriod{Start: date(1), Due: date(8)},
		NotificationSlot: &slot,
	}
	advanced, err := AdvanceTask(task, date(10))
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if advanced.NotificationSlot == nil || *advanced.NotificationSlot != 5 {
		t.Fatalf("notification slot lost on advance")
	}
	if !advanced.Period.Start.Equal(date(10)) || !advanced.Period.Due.Equal(date(17)) {
		t.Fatalf("unexpected period: %+v", advanced.Period)
	}
	if advanced.Period.Completed {
		t.Fatalf("new period must start incomplete")
	}
}

func TestAdvanceTaskGuardsMissingDueDate(t *testing.T) {
	task := domain.Task{ID: "t2", Interval: week}
	_, err := AdvanceTask(task, date(1))
	var missing domain.ErrMissingDueDate
	if !errors.As(err, &missing) || missing.TaskID != "t2" {
		t.Fatalf("expected ErrMissingDueDate for t2, got %v", err)
	}
}

func TestInitialPeriodStartsNow(t *testing.T) {
	p := InitialPeriod(week, date(3))
	if !p.Start.Equal(date(3)) || !p.Due.Equal(date(10)) {
		t.Fatalf("unexpected initial period: %+v", p)
	}
}
