package core

import (
	"context"

	"rulecore/pkg/domain"
)

// GroupedRules holds one partition ordering per rigidity tier, each sorted
// ascending by priority.
type GroupedRules struct {
	Mandatory []Rule `json:"mandatory"`
	Desirable []Rule `json:"desirable"`
	Flexible  []Rule `json:"flexible"`
}

// Tier returns the slice for the given rigidity.
func (g GroupedRules) Tier(r Rigidity) []Rule {
	switch r {
	case RigidityMandatory:
		return g.Mandatory
	case RigidityDesirable:
		return g.Desirable
	case RigidityFlexible:
		return g.Flexible
	}
	return nil
}

// Flatten concatenates the tiers in precedence order. Tier precedence is
// absolute; priority breaks ties only within a tier.
func (g GroupedRules) Flatten() []Rule {
	out := make([]Rule, 0, len(g.Mandatory)+len(g.Desirable)+len(g.Flexible))
	out = append(out, g.Mandatory...)
	out = append(out, g.Desirable...)
	out = append(out, g.Flexible...)
	return out
}

// GroupedRules returns the scope's rules of one type grouped by rigidity
// tier.
func (s *Service) GroupedRules(ctx context.Context, scope Scope, ruleType RuleType, activeOnly bool) (GroupedRules, error) {
	var grouped GroupedRules
	err := s.instrument(ctx, "grouped_rules", func(ctx context.Context) error {
		return s.store.View(ctx, func(view TransactionView) error {
			grouped.Mandatory = tierRules(view, scope, ruleType, RigidityMandatory, activeOnly)
			grouped.Desirable = tierRules(view, scope, ruleType, RigidityDesirable, activeOnly)
			grouped.Flexible = tierRules(view, scope, ruleType, RigidityFlexible, activeOnly)
			return nil
		})
	})
	if err != nil {
		return GroupedRules{}, err
	}
	return grouped, nil
}

// GlobalRules returns the flat tier-then-priority ordering of global rules
// of one type.
func (s *Service) GlobalRules(ctx context.Context, ruleType RuleType, activeOnly bool) ([]Rule, error) {
	grouped, err := s.GroupedRules(ctx, domain.GlobalScope(), ruleType, activeOnly)
	if err != nil {
		return nil, err
	}
	return grouped.Flatten(), nil
}

func tierRules(view TransactionView, scope Scope, ruleType RuleType, tier Rigidity, activeOnly bool) []Rule {
	rules := view.ListPartition(PartitionKey{Scope: scope, Type: ruleType, Rigidity: tier})
	if !activeOnly {
		return rules
	}
	out := rules[:0]
	for _, rule := range rules {
		if rule.Active {
			out = append(out, rule)
		}
	}
	return out
}
