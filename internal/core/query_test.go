package core

import (
	"context"
	"testing"

	"rulecore/pkg/domain"
)

func TestGroupedRulesSplitsByTier(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seedPartition(t, svc, "s1", RigidityMandatory, "m1", "m2")
	seedPartition(t, svc, "s1", RigidityDesirable, "d1")
	flex := seedPartition(t, svc, "s1", RigidityFlexible, "f1", "f2", "f3")

	grouped, err := svc.GroupedRules(ctx, domain.SectorScope("s1"), TypeCalculation, false)
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(grouped.Mandatory) != 2 || len(grouped.Desirable) != 1 || len(grouped.Flexible) != 3 {
		t.Fatalf("tier sizes wrong: %d/%d/%d", len(grouped.Mandatory), len(grouped.Desirable), len(grouped.Flexible))
	}
	for i, rule := range grouped.Flexible {
		if rule.Priority != i+1 {
			t.Fatalf("tier must be priority ascending: %+v", grouped.Flexible)
		}
	}

	flat := grouped.Flatten()
	if len(flat) != 6 {
		t.Fatalf("flatten lost rules: %d", len(flat))
	}
	// Tier precedence is absolute regardless of numeric priority.
	if flat[0].Rigidity != RigidityMandatory || flat[5].ID != flex[2].ID {
		t.Fatalf("flatten order wrong: first=%s last=%s", flat[0].Rigidity, flat[5].ID)
	}
}

func TestGroupedRulesActiveOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rules := seedPartition(t, svc, "s1", RigidityMandatory, "keep", "drop")
	if _, err := svc.DeactivateRule(ctx, rules[1].ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	grouped, err := svc.GroupedRules(ctx, domain.SectorScope("s1"), TypeCalculation, true)
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(grouped.Mandatory) != 1 || grouped.Mandatory[0].ID != rules[0].ID {
		t.Fatalf("active-only filter failed: %+v", grouped.Mandatory)
	}

	grouped, err = svc.GroupedRules(ctx, domain.SectorScope("s1"), TypeCalculation, false)
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(grouped.Mandatory) != 2 {
		t.Fatalf("inactive rules must stay visible without the filter: %+v", grouped.Mandatory)
	}
}

func TestGlobalRulesFlatList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateRule(ctx, laborRule("weekly rest")); err != nil {
		t.Fatalf("create: %v", err)
	}
	second := laborRule("overtime cap")
	second.Rigidity = RigidityDesirable
	if _, err := svc.CreateRule(ctx, second); err != nil {
		t.Fatalf("create: %v", err)
	}

	flat, err := svc.GlobalRules(ctx, TypeLabor, true)
	if err != nil {
		t.Fatalf("global rules: %v", err)
	}
	if len(flat) != 2 {
		t.Fatalf("expected 2 global labor rules, got %d", len(flat))
	}
	if flat[0].Rigidity != RigidityMandatory || flat[1].Rigidity != RigidityDesirable {
		t.Fatalf("tier order wrong: %s then %s", flat[0].Rigidity, flat[1].Rigidity)
	}
}

func TestGroupedRulesScopesArePartitioned(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seedPartition(t, svc, "s1", RigidityMandatory, "mine")
	seedPartition(t, svc, "s2", RigidityMandatory, "theirs")

	grouped, err := svc.GroupedRules(ctx, domain.SectorScope("s1"), TypeCalculation, false)
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(grouped.Mandatory) != 1 || grouped.Mandatory[0].Title != "mine" {
		t.Fatalf("sector isolation broken: %+v", grouped.Mandatory)
	}
}
