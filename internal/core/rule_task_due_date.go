package core

import (
	"context"
	"fmt"

	"plantcore/pkg/domain"
)

// NewTaskDueDateRule returns the data-integrity rule guarding task records:
// an active (non-completed) task must always carry a due date, and every task
// must be owned by the plant it is stored under.
func NewTaskDueDateRule() domain.Rule {
	return taskDueDateRule{}
}

type taskDueDateRule struct{}

func (taskDueDateRule) Name() string { return "task_due_date" }

func (taskDueDateRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, plant := range view.ListPlants() {
		for taskType, task := range plant.Tasks {
			if task.PlantID != "" && task.PlantID != plant.ID {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "task_due_date",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("task %s stored under plant %s but owned by %s", task.ID, plant.ID, task.PlantID),
					Entity:   domain.EntityTask,
					EntityID: task.ID,
				})
			}
			if task.Type != "" && task.Type != taskType {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "task_due_date",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("task %s stored under type %s but typed %s", task.ID, taskType, task.Type),
					Entity:   domain.EntityTask,
					EntityID: task.ID,
				})
			}
			if !task.Period.Completed && task.Period.Due.IsZero() {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "task_due_date",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("active task %s (%s) has no due date", task.ID, taskType),
					Entity:   domain.EntityTask,
					EntityID: task.ID,
				})
			}
		}
	}
	return res, nil
}
