// Package domain defines the core persistent entities, value types, and
// evaluation primitives of the rule governance engine.
package domain

import (
	"fmt"
	"time"
)

// RuleType classifies what a rule governs. It is fixed at creation.
type RuleType string

// Supported rule type identifiers used in partition keys and persistence buckets.
const (
	// TypeLabor identifies labor-law and contract policy rules.
	TypeLabor RuleType = "labor"
	// TypeSystem identifies platform-wide system rules.
	TypeSystem RuleType = "system"
	// TypeOperational identifies sector operating-procedure rules.
	TypeOperational RuleType = "operational"
	// TypeCalculation identifies machine-evaluated demand calculation rules.
	TypeCalculation RuleType = "calculation"
)

// Valid reports whether t is one of the supported rule types.
func (t RuleType) Valid() bool {
	switch t {
	case TypeLabor, TypeSystem, TypeOperational, TypeCalculation:
		return true
	}
	return false
}

// Rigidity is the tier a rule belongs to. Tier precedence is absolute:
// mandatory rules always precede desirable rules, which always precede
// flexible rules, regardless of numeric priority.
type Rigidity string

// Rigidity tiers in precedence order.
const (
	RigidityMandatory Rigidity = "mandatory"
	RigidityDesirable Rigidity = "desirable"
	RigidityFlexible  Rigidity = "flexible"
)

// RigidityOrder lists tiers in precedence order (strongest first).
var RigidityOrder = []Rigidity{RigidityMandatory, RigidityDesirable, RigidityFlexible}

// Valid reports whether r is a known tier.
func (r Rigidity) Valid() bool {
	switch r {
	case RigidityMandatory, RigidityDesirable, RigidityFlexible:
		return true
	}
	return false
}

// rank returns the tier precedence index (0 strongest). Unknown tiers sort last.
func (r Rigidity) rank() int {
	for i, tier := range RigidityOrder {
		if tier == r {
			return i
		}
	}
	return len(RigidityOrder)
}

// Precedes reports whether r outranks other in tier precedence.
func (r Rigidity) Precedes(other Rigidity) bool {
	return r.rank() < other.rank()
}

// ScopeKind discriminates the scope sum type.
type ScopeKind string

// Scope kinds.
const (
	ScopeKindGlobal ScopeKind = "global"
	ScopeKindSector ScopeKind = "sector"
)

// Scope is either global (applies to every sector) or bound to one
// organizational sector. It participates in the priority partition key and
// is therefore fixed at rule creation.
type Scope struct {
	Kind     ScopeKind `json:"kind"`
	SectorID string    `json:"sector_id,omitempty"`
}

// GlobalScope returns the scope shared by all sectors.
func GlobalScope() Scope { return Scope{Kind: ScopeKindGlobal} }

// SectorScope returns a scope bound to the given sector.
func SectorScope(sectorID string) Scope {
	return Scope{Kind: ScopeKindSector, SectorID: sectorID}
}

// IsGlobal reports whether the scope applies to all sectors.
func (s Scope) IsGlobal() bool { return s.Kind == ScopeKindGlobal }

// Validate checks structural consistency of the scope value.
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeKindGlobal:
		if s.SectorID != "" {
			return NewValidationError("scope.sector_id", "global scope must not carry a sector id")
		}
	case ScopeKindSector:
		if s.SectorID == "" {
			return NewValidationError("scope.sector_id", "sector scope requires a sector id")
		}
	default:
		return NewValidationError("scope.kind", fmt.Sprintf("unknown scope kind %q", s.Kind))
	}
	return nil
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "sector:" + s.SectorID
}

// PartitionKey identifies the ordering partition a rule belongs to. Priority
// values are unique within a partition; a global rule and a sector rule of
// the same type and tier live in different partitions and may both hold
// priority 1.
type PartitionKey struct {
	Scope    Scope    `json:"scope"`
	Type     RuleType `json:"type"`
	Rigidity Rigidity `json:"rigidity"`
}

func (k PartitionKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Scope, k.Type, k.Rigidity)
}

// Window bounds the validity of a rule. A rule outside its window at
// evaluation time is treated as inactive for that evaluation only.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window, inclusive both ends.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Base contains common fields for all stored records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rule is the central entity of the governance engine.
type Rule struct {
	Base
	Scope    Scope    `json:"scope"`
	Type     RuleType `json:"type"`
	Rigidity Rigidity `json:"rigidity"`
	Title    string   `json:"title"`
	Question string   `json:"question,omitempty"`
	// Answer is the human-readable policy statement for non-calculation
	// rules; it is never machine-evaluated.
	Answer    string     `json:"answer,omitempty"`
	Priority  int        `json:"priority"`
	Active    bool       `json:"active"`
	Validity  *Window    `json:"validity,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
	Action    *Action    `json:"action,omitempty"`
}

// Partition returns the ordering partition the rule belongs to.
func (r Rule) Partition() PartitionKey {
	return PartitionKey{Scope: r.Scope, Type: r.Type, Rigidity: r.Rigidity}
}

// EffectiveAt reports whether the rule participates in evaluation at t:
// active and, when a validity window is present, inside it.
func (r Rule) EffectiveAt(t time.Time) bool {
	if !r.Active {
		return false
	}
	if r.Validity != nil && !r.Validity.Contains(t) {
		return false
	}
	return true
}

// CloneRule returns a deep copy so callers can mutate results without
// aliasing stored state.
func CloneRule(r Rule) Rule {
	cp := r
	if r.Validity != nil {
		w := *r.Validity
		cp.Validity = &w
	}
	if r.Condition != nil {
		cp.Condition = r.Condition.clone()
	}
	if r.Action != nil {
		a := *r.Action
		cp.Action = &a
	}
	return cp
}

// Validate checks the structural invariants of the rule independent of
// store state: scope shape, known enums, and the calculation action
// contract (calculation rules require an action, other types forbid one).
func (r Rule) Validate() error {
	if err := r.Scope.Validate(); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return NewValidationError("type", fmt.Sprintf("unknown rule type %q", r.Type))
	}
	if !r.Rigidity.Valid() {
		return NewValidationError("rigidity", fmt.Sprintf("unknown rigidity %q", r.Rigidity))
	}
	if r.Title == "" {
		return NewValidationError("title", "title is required")
	}
	if r.Validity != nil && r.Validity.End.Before(r.Validity.Start) {
		return NewValidationError("validity", "validity window ends before it starts")
	}
	if r.Type == TypeCalculation {
		if r.Action == nil {
			return NewValidationError("action", "calculation rules require an action")
		}
		if err := r.Action.Validate(); err != nil {
			return err
		}
		if r.Condition != nil {
			if err := r.Condition.Validate(); err != nil {
				return err
			}
		}
		return nil
	}
	if r.Action != nil {
		return NewValidationError("action", fmt.Sprintf("%s rules must not carry an action", r.Type))
	}
	if r.Condition != nil {
		return NewValidationError("condition", fmt.Sprintf("%s rules must not carry a condition", r.Type))
	}
	return nil
}

// ChangeAction indicates the type of modification captured in a transaction.
type ChangeAction string

// Change actions enumerate supported mutations captured for audit.
const (
	ChangeCreate ChangeAction = "create"
	ChangeUpdate ChangeAction = "update"
	ChangeDelete ChangeAction = "delete"
)

// Change describes a mutation applied to a rule during a transaction.
type Change struct {
	Action ChangeAction
	Before *Rule
	After  *Rule
}
