package core

import (
	"context"
	"sort"

	"plantcore/internal/notify"
	"plantcore/pkg/domain"
)

// CreateTask starts a recurring care task for the plant, deriving the first
// period from the plant's care settings. A notification slot is reserved and
// a due-date reminder scheduled; when every slot is taken the task is still
// created, just without a reminder, and ErrSlotsExhausted is returned so the
// caller can surface the degraded state. Creating a task type the plant
// already has returns the existing task unchanged.
func (s *Service) CreateTask(ctx context.Context, plantID string, taskType TaskType) (task Task, res Result, err error) {
	defer s.instrument(ctx, "create_task", &err)()

	// The slot is reserved before the transaction; paths that do not commit
	// a new task hand it back.
	slot, slotErr := s.slots.Allocate()

	var plantName string
	existing := false
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		plant, ok := tx.FindPlant(plantID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityPlant, ID: plantID}
		}
		if current, ok := plant.Tasks[taskType]; ok {
			task = current
			existing = true
			return nil
		}
		interval, ok := plant.Settings.Interval(taskType)
		if !ok {
			return domain.ErrRecurrenceConfigMissing{PlantID: plantID, Type: taskType}
		}
		plantName = plant.Name
		task = Task{
			ID:       newID(),
			PlantID:  plantID,
			Type:     taskType,
			Period:   InitialPeriod(interval, s.clock.Now()),
			Interval: interval,
		}
		if slotErr == nil {
			task.NotificationSlot = &slot
		}
		_, txErr := tx.UpdatePlant(plantID, func(p *Plant) error {
			if p.Tasks == nil {
				p.Tasks = make(map[TaskType]Task)
			}
			p.Tasks[taskType] = task
			return nil
		})
		return txErr
	})
	if err != nil {
		if slotErr == nil {
			s.slots.Release(slot)
		}
		return Task{}, res, err
	}
	if existing {
		if slotErr == nil {
			s.slots.Release(slot)
		}
		return task, res, nil
	}

	if slotErr != nil {
		s.logger.Warn("notification slots exhausted", "plant_id", plantID, "task_type", taskType)
		return task, res, slotErr
	}
	s.scheduleReminder(ctx, plantName, task)
	return task, res, nil
}

// CompleteTask finishes the task's current period and rolls it forward; the
// reminder, when present, is rescheduled against the new due date.
func (s *Service) CompleteTask(ctx context.Context, plantID string, taskType TaskType) (task Task, res Result, err error) {
	defer s.instrument(ctx, "complete_task", &err)()
	var plantName string
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, txErr := tx.UpdatePlant(plantID, func(p *Plant) error {
			current, ok := p.Tasks[taskType]
			if !ok {
				return domain.ErrNotFound{Entity: EntityTask, ID: string(taskType)}
			}
			advanced, advErr := AdvanceTask(current, s.clock.Now())
			if advErr != nil {
				return advErr
			}
			p.Tasks[taskType] = advanced
			plantName = p.Name
			task = advanced
			return nil
		})
		return txErr
	})
	if err != nil {
		return Task{}, res, err
	}
	if task.NotificationSlot != nil {
		s.scheduleReminder(ctx, plantName, task)
	}
	return task, res, nil
}

// DeleteTask stops a recurring task, cancelling its reminder and releasing
// the notification slot for reuse.
func (s *Service) DeleteTask(ctx context.Context, plantID string, taskType TaskType) (res Result, err error) {
	defer s.instrument(ctx, "delete_task", &err)()
	var removed Task
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, txErr := tx.UpdatePlant(plantID, func(p *Plant) error {
			current, ok := p.Tasks[taskType]
			if !ok {
				return domain.ErrNotFound{Entity: EntityTask, ID: string(taskType)}
			}
			removed = current
			delete(p.Tasks, taskType)
			return nil
		})
		return txErr
	})
	if err != nil {
		return res, err
	}
	if removed.NotificationSlot != nil {
		slot := *removed.NotificationSlot
		if cancelErr := s.dispatcher.Cancel(ctx, slot); cancelErr != nil {
			s.logger.Warn("reminder cancel failed", "plant_id", plantID, "slot", slot, "error", cancelErr)
		}
		s.slots.Release(slot)
	}
	return res, nil
}

// TasksFor returns the plant's tasks ordered by due date, earliest first.
func (s *Service) TasksFor(plantID string) ([]Task, error) {
	plant, ok := s.store.GetPlant(plantID)
	if !ok {
		return nil, domain.ErrNotFound{Entity: EntityPlant, ID: plantID}
	}
	tasks := make([]Task, 0, len(plant.Tasks))
	for _, task := range plant.Tasks {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].Period.Due.Equal(tasks[j].Period.Due) {
			return tasks[i].Period.Due.Before(tasks[j].Period.Due)
		}
		return tasks[i].Type < tasks[j].Type
	})
	return tasks, nil
}

func (s *Service) scheduleReminder(ctx context.Context, plantName string, task Task) {
	payload := notify.Payload{PlantID: task.PlantID, PlantName: plantName, TaskType: task.Type}
	if err := s.dispatcher.Schedule(ctx, *task.NotificationSlot, task.Period.Due, payload); err != nil {
		s.logger.Warn("reminder schedule failed", "plant_id", task.PlantID, "slot", *task.NotificationSlot, "error", err)
	}
}
