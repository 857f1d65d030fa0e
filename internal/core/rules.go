package core

import "plantcore/pkg/domain"

// Rule aliases the domain rule contract evaluated at transaction commit.
type Rule = domain.Rule

// RulesEngine aliases the domain rule orchestrator.
type RulesEngine = domain.RulesEngine

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewRoomMembershipRule())
	engine.Register(NewTaskDueDateRule())
	engine.Register(NewNotificationSlotRule())
	return engine
}
