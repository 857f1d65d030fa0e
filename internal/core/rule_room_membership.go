package core

import (
	"context"
	"fmt"

	"plantcore/pkg/domain"
)

// NewRoomMembershipRule returns the default in-transaction rule enforcing the
// room/plant membership graph: every listed plant exists with a matching room
// pointer, and no plant is listed by two rooms.
func NewRoomMembershipRule() domain.Rule {
	return roomMembershipRule{}
}

type roomMembershipRule struct{}

func (roomMembershipRule) Name() string { return "room_membership" }

func (roomMembershipRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	listedBy := make(map[string]string)

	for _, room := range view.ListRooms() {
		for _, plantID := range room.PlantIDs {
			if prior, dup := listedBy[plantID]; dup {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "room_membership",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("plant %s listed by rooms %s and %s", plantID, prior, room.ID),
					Entity:   domain.EntityPlant,
					EntityID: plantID,
				})
				continue
			}
			listedBy[plantID] = room.ID

			plant, ok := view.FindPlant(plantID)
			if !ok {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "room_membership",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("room %s (%s) lists missing plant %s", room.Name, room.ID, plantID),
					Entity:   domain.EntityRoom,
					EntityID: room.ID,
				})
				continue
			}
			if plant.RoomID == nil || *plant.RoomID != room.ID {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "room_membership",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("plant %s listed by room %s but assigned elsewhere", plantID, room.ID),
					Entity:   domain.EntityPlant,
					EntityID: plantID,
				})
			}
		}
	}
	return res, nil
}
