package core

import "plantcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	TaskType           = domain.TaskType
	CascadePolicy      = domain.CascadePolicy
	Severity           = domain.Severity
	Base               = domain.Base
	Room               = domain.Room
	Plant              = domain.Plant
	PlantImage         = domain.PlantImage
	PreviewImage       = domain.PreviewImage
	CareSettings       = domain.CareSettings
	Task               = domain.Task
	TaskPeriod         = domain.TaskPeriod
	UserProfile        = domain.UserProfile
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	ErrNotFound        = domain.ErrNotFound
)

const (
	EntityRoom  = domain.EntityRoom
	EntityPlant = domain.EntityPlant
	EntityTask  = domain.EntityTask
	EntityImage = domain.EntityImage
	EntityUser  = domain.EntityUser
)

const (
	TaskWatering    = domain.TaskWatering
	TaskFertilizing = domain.TaskFertilizing
	TaskRepotting   = domain.TaskRepotting
	TaskMisting     = domain.TaskMisting
	TaskCustom      = domain.TaskCustom
)

const (
	CascadeDeletePlants = domain.CascadeDeletePlants
	CascadeDetachPlants = domain.CascadeDetachPlants
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
