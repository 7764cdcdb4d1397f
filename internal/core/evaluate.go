package core

import (
	"context"

	"rulecore/pkg/domain"
)

// Evaluate runs the sector's calculation rules against the driver snapshot
// and returns the effects of every matching rule as an ordered list. Order
// is tier precedence first, then global before sector within a tier, then
// numeric priority. Evaluation is read-only and deterministic: an unchanged
// rule set and snapshot always produce the identical effect list. Applying
// the effects, including any last-applied-wins interplay between them, is
// the demand pipeline's job.
func (s *Service) Evaluate(ctx context.Context, sectorID string, snapshot DriverSnapshot) ([]Effect, error) {
	if sectorID == "" {
		return nil, domain.NewValidationError("sector_id", "sector id is required")
	}
	var effects []Effect
	err := s.instrument(ctx, "evaluate", func(ctx context.Context) error {
		now := s.nowFn()
		scopes := []Scope{domain.GlobalScope(), domain.SectorScope(sectorID)}
		return s.store.View(ctx, func(view TransactionView) error {
			for _, tier := range domain.RigidityOrder {
				for _, scope := range scopes {
					key := PartitionKey{Scope: scope, Type: TypeCalculation, Rigidity: tier}
					for _, rule := range view.ListPartition(key) {
						if !rule.EffectiveAt(now) {
							continue
						}
						if !rule.Condition.Matches(snapshot) {
							continue
						}
						if rule.Action == nil {
							continue
						}
						effect, err := domain.ResolveAction(rule.ID, *rule.Action)
						if err != nil {
							// Stored actions are validated at write time;
							// an unresolvable one is skipped, not fatal.
							s.logger.Warn("skipping rule with unresolvable action", "rule_id", rule.ID, "error", err)
							continue
						}
						effects = append(effects, effect)
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return effects, nil
}
