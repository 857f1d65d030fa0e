package core

import (
	"context"
	"fmt"

	"plantcore/pkg/domain"
)

// NewNotificationSlotRule returns the rule guarding reminder slots: no two
// live tasks may share a slot, and slots stay below the platform ceiling.
func NewNotificationSlotRule() domain.Rule {
	return notificationSlotRule{}
}

type notificationSlotRule struct{}

func (notificationSlotRule) Name() string { return "notification_slot" }

func (notificationSlotRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	holders := make(map[int]string)

	for _, plant := range view.ListPlants() {
		for _, task := range plant.Tasks {
			if task.NotificationSlot == nil {
				continue
			}
			slot := *task.NotificationSlot
			if slot < 0 || slot >= domain.SlotCeiling {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "notification_slot",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("task %s holds out-of-range slot %d", task.ID, slot),
					Entity:   domain.EntityTask,
					EntityID: task.ID,
				})
				continue
			}
			if prior, taken := holders[slot]; taken {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "notification_slot",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("slot %d held by tasks %s and %s", slot, prior, task.ID),
					Entity:   domain.EntityTask,
					EntityID: task.ID,
				})
				continue
			}
			holders[slot] = task.ID
		}
	}
	return res, nil
}
