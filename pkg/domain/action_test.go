package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestActionValidate(t *testing.T) {
	cases := []struct {
		name    string
		action  Action
		wantErr bool
	}{
		{name: "insert activity", action: Action{Kind: ActionInsertActivity, ActivityID: "deep-clean"}},
		{name: "insert activity without id", action: Action{Kind: ActionInsertActivity}, wantErr: true},
		{name: "multiply", action: Action{Kind: ActionMultiplyDemand, Factor: decimal.RequireFromString("1.1")}},
		{name: "multiply zero factor", action: Action{Kind: ActionMultiplyDemand}, wantErr: true},
		{name: "multiply negative factor", action: Action{Kind: ActionMultiplyDemand, Factor: decimal.RequireFromString("-2")}, wantErr: true},
		{name: "add minutes", action: Action{Kind: ActionAddMinutes, Minutes: decimal.NewFromInt(5)}},
		{name: "add negative minutes is a credit", action: Action{Kind: ActionAddMinutes, Minutes: decimal.NewFromInt(-15)}},
		{name: "parametric", action: Action{Kind: ActionApplyParametricFactor, ParameterName: "holiday_factor", Factor: decimal.RequireFromString("0.8")}},
		{name: "parametric without name", action: Action{Kind: ActionApplyParametricFactor, Factor: decimal.NewFromInt(1)}, wantErr: true},
		{name: "parametric without factor", action: Action{Kind: ActionApplyParametricFactor, ParameterName: "holiday_factor"}, wantErr: true},
		{name: "unknown kind", action: Action{Kind: "teleport"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.action.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestResolveAction(t *testing.T) {
	effect, err := ResolveAction("r-1", Action{Kind: ActionMultiplyDemand, Factor: decimal.RequireFromString("1.25")})
	if err != nil {
		t.Fatalf("resolve multiply: %v", err)
	}
	multiply, ok := effect.(MultiplyEffect)
	if !ok {
		t.Fatalf("expected MultiplyEffect, got %T", effect)
	}
	if !multiply.Factor.Equal(decimal.RequireFromString("1.25")) || multiply.RuleID() != "r-1" {
		t.Fatalf("unexpected effect payload: %+v", multiply)
	}

	effect, err = ResolveAction("r-2", Action{Kind: ActionAddMinutes, Minutes: decimal.NewFromInt(-10)})
	if err != nil {
		t.Fatalf("resolve add minutes: %v", err)
	}
	if add := effect.(AddMinutesEffect); !add.Minutes.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("credit minutes lost in resolution: %+v", add)
	}

	effect, err = ResolveAction("r-3", Action{Kind: ActionInsertActivity, ActivityID: "turndown"})
	if err != nil {
		t.Fatalf("resolve insert activity: %v", err)
	}
	if ins := effect.(InsertActivityEffect); ins.ActivityID != "turndown" {
		t.Fatalf("activity id lost: %+v", ins)
	}

	effect, err = ResolveAction("r-4", Action{Kind: ActionApplyParametricFactor, ParameterName: "holiday_factor", Factor: decimal.NewFromInt(2)})
	if err != nil {
		t.Fatalf("resolve parametric: %v", err)
	}
	if p := effect.(ParametricEffect); p.ParameterName != "holiday_factor" {
		t.Fatalf("parameter name lost: %+v", p)
	}

	if _, err := ResolveAction("r-5", Action{Kind: ActionMultiplyDemand}); err == nil {
		t.Fatalf("invalid action must not resolve")
	}
}
