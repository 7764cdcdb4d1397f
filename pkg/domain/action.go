package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionKind discriminates the closed set of calculation rule actions.
type ActionKind string

// Supported action kinds. The set is closed: persistence stores the same
// tags, and unknown tags are rejected at the boundary rather than carried
// as open maps.
const (
	ActionInsertActivity        ActionKind = "insert_activity"
	ActionMultiplyDemand        ActionKind = "multiply_demand"
	ActionAddMinutes            ActionKind = "add_minutes"
	ActionApplyParametricFactor ActionKind = "apply_parametric_factor"
)

// Action describes what a matched calculation rule does. Exactly the fields
// of the tagged kind are meaningful; Validate enforces the per-kind contract.
type Action struct {
	Kind          ActionKind      `json:"kind"`
	ActivityID    string          `json:"activity_id,omitempty"`
	Factor        decimal.Decimal `json:"factor,omitempty"`
	Minutes       decimal.Decimal `json:"minutes,omitempty"`
	ParameterName string          `json:"parameter_name,omitempty"`
}

// Validate enforces the per-kind field contract without consulting external
// collaborators (activity existence is checked at write time by the service).
func (a Action) Validate() error {
	switch a.Kind {
	case ActionInsertActivity:
		if a.ActivityID == "" {
			return NewValidationError("action.activity_id", "insert_activity requires an activity id")
		}
	case ActionMultiplyDemand:
		if !a.Factor.IsPositive() {
			return NewValidationError("action.factor", "multiply_demand requires a factor greater than zero")
		}
	case ActionAddMinutes:
		// Negative minutes are allowed: they represent a credit.
	case ActionApplyParametricFactor:
		if a.ParameterName == "" {
			return NewValidationError("action.parameter_name", "apply_parametric_factor requires a parameter name")
		}
		if a.Factor.IsZero() {
			return NewValidationError("action.factor", "apply_parametric_factor requires a factor")
		}
	default:
		return NewValidationError("action.kind", fmt.Sprintf("unknown action kind %q", a.Kind))
	}
	return nil
}

// EffectKind discriminates resolved effects.
type EffectKind string

// Effect kinds mirror action kinds one to one.
const (
	EffectInsertActivity EffectKind = "insert_activity"
	EffectMultiply       EffectKind = "multiply"
	EffectAddMinutes     EffectKind = "add_minutes"
	EffectParametric     EffectKind = "parametric"
)

// Effect is the typed, executable result of a matched rule's action. The
// engine hands an ordered list of effects to the external demand pipeline;
// applying them, including any last-applied-wins semantics, is the
// caller's job.
type Effect interface {
	Kind() EffectKind
	// RuleID identifies the rule that produced the effect, for audit.
	RuleID() string
}

// InsertActivityEffect schedules an activity insertion.
type InsertActivityEffect struct {
	Rule       string `json:"rule_id"`
	ActivityID string `json:"activity_id"`
}

// Kind implements Effect.
func (InsertActivityEffect) Kind() EffectKind { return EffectInsertActivity }

// RuleID implements Effect.
func (e InsertActivityEffect) RuleID() string { return e.Rule }

// MultiplyEffect scales the computed demand quantity.
type MultiplyEffect struct {
	Rule   string          `json:"rule_id"`
	Factor decimal.Decimal `json:"factor"`
}

// Kind implements Effect.
func (MultiplyEffect) Kind() EffectKind { return EffectMultiply }

// RuleID implements Effect.
func (e MultiplyEffect) RuleID() string { return e.Rule }

// AddMinutesEffect adds fixed minutes to the computed workload. Negative
// minutes represent a credit.
type AddMinutesEffect struct {
	Rule    string          `json:"rule_id"`
	Minutes decimal.Decimal `json:"minutes"`
}

// Kind implements Effect.
func (AddMinutesEffect) Kind() EffectKind { return EffectAddMinutes }

// RuleID implements Effect.
func (e AddMinutesEffect) RuleID() string { return e.Rule }

// ParametricEffect applies a named parametric factor. Resolving the
// parameter name to an actual value is the downstream pipeline's job.
type ParametricEffect struct {
	Rule          string          `json:"rule_id"`
	ParameterName string          `json:"parameter_name"`
	Factor        decimal.Decimal `json:"factor"`
}

// Kind implements Effect.
func (ParametricEffect) Kind() EffectKind { return EffectParametric }

// RuleID implements Effect.
func (e ParametricEffect) RuleID() string { return e.Rule }

// ActivityRegistry is the external collaborator that owns scheduled
// activity definitions. Exists must respect ctx cancellation; a timeout is
// reported by the caller as UnavailableError, never as NotFoundError.
type ActivityRegistry interface {
	Exists(ctx context.Context, activityID string) (bool, error)
}

// ResolveAction maps a rule's action to its typed effect, revalidating the
// per-kind field contract. Resolution is a pure mapping: it never touches
// the activity registry (that validation happens at write time).
func ResolveAction(ruleID string, a Action) (Effect, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	switch a.Kind {
	case ActionInsertActivity:
		return InsertActivityEffect{Rule: ruleID, ActivityID: a.ActivityID}, nil
	case ActionMultiplyDemand:
		return MultiplyEffect{Rule: ruleID, Factor: a.Factor}, nil
	case ActionAddMinutes:
		return AddMinutesEffect{Rule: ruleID, Minutes: a.Minutes}, nil
	case ActionApplyParametricFactor:
		return ParametricEffect{Rule: ruleID, ParameterName: a.ParameterName, Factor: a.Factor}, nil
	default:
		return nil, NewValidationError("action.kind", fmt.Sprintf("unknown action kind %q", a.Kind))
	}
}
