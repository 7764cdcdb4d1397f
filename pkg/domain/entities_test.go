package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validCalculationRule() Rule {
	return Rule{
		Base:     Base{ID: "r-1"},
		Scope:    SectorScope("sector-a"),
		Type:     TypeCalculation,
		Rigidity: RigidityMandatory,
		Title:    "High occupancy uplift",
		Priority: 1,
		Active:   true,
		Action:   &Action{Kind: ActionMultiplyDemand, Factor: decimal.RequireFromString("1.1")},
	}
}

func TestRuleValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Rule)
		wantErr bool
	}{
		{name: "valid calculation rule", mutate: func(*Rule) {}},
		{name: "missing title", mutate: func(r *Rule) { r.Title = "" }, wantErr: true},
		{name: "unknown type", mutate: func(r *Rule) { r.Type = "budget" }, wantErr: true},
		{name: "unknown rigidity", mutate: func(r *Rule) { r.Rigidity = "strict" }, wantErr: true},
		{name: "sector scope without id", mutate: func(r *Rule) { r.Scope = Scope{Kind: ScopeKindSector} }, wantErr: true},
		{name: "global scope with sector id", mutate: func(r *Rule) { r.Scope = Scope{Kind: ScopeKindGlobal, SectorID: "x"} }, wantErr: true},
		{name: "calculation without action", mutate: func(r *Rule) { r.Action = nil }, wantErr: true},
		{
			name: "operational with action",
			mutate: func(r *Rule) {
				r.Type = TypeOperational
				r.Condition = nil
			},
			wantErr: true,
		},
		{
			name: "operational without action",
			mutate: func(r *Rule) {
				r.Type = TypeOperational
				r.Action = nil
				r.Answer = "Linen change every third day"
			},
		},
		{
			name: "inverted validity window",
			mutate: func(r *Rule) {
				start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
				end := start.AddDate(0, 0, -1)
				r.Validity = &Window{Start: start, End: end}
			},
			wantErr: true,
		},
		{
			name: "condition on calculation rule",
			mutate: func(r *Rule) {
				r.Condition = &Condition{Driver: "occupancy", Min: decimal.Zero, Max: decimal.NewFromInt(1)}
			},
		},
		{
			name: "condition without driver",
			mutate: func(r *Rule) {
				r.Condition = &Condition{Min: decimal.Zero, Max: decimal.NewFromInt(1)}
			},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := validCalculationRule()
			tc.mutate(&rule)
			err := rule.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestRuleEffectiveAt(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	rule := validCalculationRule()

	if !rule.EffectiveAt(now) {
		t.Fatalf("active rule without window should be effective")
	}

	rule.Active = false
	if rule.EffectiveAt(now) {
		t.Fatalf("inactive rule must never be effective")
	}

	rule.Active = true
	rule.Validity = &Window{Start: now.AddDate(0, 0, 1), End: now.AddDate(0, 0, 10)}
	if rule.EffectiveAt(now) {
		t.Fatalf("rule before its window should be treated as inactive")
	}

	rule.Validity = &Window{Start: now, End: now}
	if !rule.EffectiveAt(now) {
		t.Fatalf("window bounds are inclusive")
	}
}

func TestCloneRuleDoesNotAlias(t *testing.T) {
	rule := validCalculationRule()
	rule.Condition = &Condition{
		Driver:   "occupancy",
		Min:      decimal.Zero,
		Max:      decimal.NewFromInt(1),
		Weekdays: []time.Weekday{time.Friday},
	}
	rule.Validity = &Window{Start: time.Now(), End: time.Now().AddDate(0, 1, 0)}

	cp := CloneRule(rule)
	cp.Condition.Driver = "checkouts"
	cp.Condition.Weekdays[0] = time.Monday
	cp.Action.Kind = ActionAddMinutes
	cp.Validity.End = cp.Validity.End.AddDate(1, 0, 0)

	if rule.Condition.Driver != "occupancy" || rule.Condition.Weekdays[0] != time.Friday {
		t.Fatalf("clone aliased condition state: %+v", rule.Condition)
	}
	if rule.Action.Kind != ActionMultiplyDemand {
		t.Fatalf("clone aliased action state: %+v", rule.Action)
	}
}

func TestPartitionKeySeparatesGlobalAndSector(t *testing.T) {
	global := Rule{Scope: GlobalScope(), Type: TypeLabor, Rigidity: RigidityMandatory}
	sector := Rule{Scope: SectorScope("s1"), Type: TypeLabor, Rigidity: RigidityMandatory}
	if global.Partition() == sector.Partition() {
		t.Fatalf("global and sector rules must not share a partition")
	}
}

func TestRigidityPrecedence(t *testing.T) {
	if !RigidityMandatory.Precedes(RigidityDesirable) {
		t.Fatalf("mandatory must precede desirable")
	}
	if !RigidityDesirable.Precedes(RigidityFlexible) {
		t.Fatalf("desirable must precede flexible")
	}
	if RigidityFlexible.Precedes(RigidityMandatory) {
		t.Fatalf("flexible must not precede mandatory")
	}
}
