package core

import "rulecore/pkg/domain"

type (
	Rule             = domain.Rule
	RuleType         = domain.RuleType
	Rigidity         = domain.Rigidity
	Scope            = domain.Scope
	PartitionKey     = domain.PartitionKey
	Window           = domain.Window
	Condition        = domain.Condition
	Action           = domain.Action
	Effect           = domain.Effect
	DriverSnapshot   = domain.DriverSnapshot
	Filter           = domain.Filter
	Change           = domain.Change
	Issue            = domain.Issue
	AutoModeReport   = domain.AutoModeReport
	AutoModeCheck    = domain.AutoModeCheck
	AutoModeEngine   = domain.AutoModeEngine
	ActivityRegistry = domain.ActivityRegistry
)

const (
	TypeLabor       = domain.TypeLabor
	TypeSystem      = domain.TypeSystem
	TypeOperational = domain.TypeOperational
	TypeCalculation = domain.TypeCalculation
)

const (
	RigidityMandatory = domain.RigidityMandatory
	RigidityDesirable = domain.RigidityDesirable
	RigidityFlexible  = domain.RigidityFlexible
)

const (
	ActionInsertActivity        = domain.ActionInsertActivity
	ActionMultiplyDemand        = domain.ActionMultiplyDemand
	ActionAddMinutes            = domain.ActionAddMinutes
	ActionApplyParametricFactor = domain.ActionApplyParametricFactor
)

const (
	IssueBlock = domain.IssueBlock
	IssueWarn  = domain.IssueWarn
)
