package core

import (
	"time"

	"plantcore/pkg/domain"
)

// NextPeriod derives the period that follows prev for a task with the given
// recurrence interval. The new period starts at max(prev.Due, now), so late
// completions catch up to the present instead of stacking backlog, and its
// due date is start + interval. With a positive interval the next due date is
// always strictly after the previous one.
func NextPeriod(prev domain.TaskPeriod, interval time.Duration, now time.Time) domain.TaskPeriod {
	start := prev.Due
	if now.After(start) {
		start = now
	}
	return domain.TaskPeriod{
		Start: start,
		Due:   start.Add(interval),
	}
}

// InitialPeriod builds the first period of a freshly created task.
func InitialPeriod(interval time.Duration, now time.Time) domain.TaskPeriod {
	return domain.TaskPeriod{
		Start: now,
		Due:   now.Add(interval),
	}
}

// AdvanceTask marks the task's current period complete and replaces it with
// the next one, preserving the notification slot so the caller can re-schedule
// the reminder against the new due date. An active task without a due date
// trips the data-integrity guard.
func AdvanceTask(task domain.Task, now time.Time) (domain.Task, error) {
	if !task.Period.Completed && task.Period.Due.IsZero() {
		return domain.Task{}, domain.ErrMissingDueDate{TaskID: task.ID}
	}
	task.Period = NextPeriod(task.Period, task.Interval, now)
	return task, nil
}
