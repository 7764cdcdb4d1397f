package core

import (
	"context"
	"fmt"

	"rulecore/pkg/domain"
)

// NewDefaultAutoModeEngine builds the auto-mode validator with the built-in
// completeness checks. The registry may be nil, in which case activity
// references go unchecked.
func NewDefaultAutoModeEngine(registry ActivityRegistry) *AutoModeEngine {
	engine := domain.NewAutoModeEngine()
	engine.Register(baselineCoverageCheck{})
	engine.Register(activityReferenceCheck{registry: registry})
	return engine
}

// baselineCoverageCheck requires at least one unconditional calculation rule
// so the demand baseline is always covered, whatever the day's drivers are.
type baselineCoverageCheck struct{}

func (baselineCoverageCheck) Name() string { return "baseline_coverage" }

func (baselineCoverageCheck) Check(_ context.Context, sectorID string, rules []Rule) ([]Issue, error) {
	for _, rule := range rules {
		if rule.Condition == nil {
			return nil, nil
		}
	}
	return []Issue{{
		Check:    "baseline_coverage",
		Severity: IssueBlock,
		Message:  fmt.Sprintf("sector %s has no unconditional calculation rule covering the demand baseline", sectorID),
	}}, nil
}

// activityReferenceCheck flags rules whose action references an activity the
// registry no longer knows.
type activityReferenceCheck struct {
	registry ActivityRegistry
}

func (activityReferenceCheck) Name() string { return "activity_references" }

func (c activityReferenceCheck) Check(ctx context.Context, _ string, rules []Rule) ([]Issue, error) {
	if c.registry == nil {
		return nil, nil
	}
	var issues []Issue
	for _, rule := range rules {
		if rule.Action == nil || rule.Action.Kind != ActionInsertActivity {
			continue
		}
		ok, err := c.registry.Exists(ctx, rule.Action.ActivityID)
		if err != nil {
			return nil, domain.UnavailableError{Dependency: "activity registry", Err: err}
		}
		if !ok {
			issues = append(issues, Issue{
				Check:    "activity_references",
				Severity: IssueBlock,
				Message:  fmt.Sprintf("rule references missing activity %s", rule.Action.ActivityID),
				RuleID:   rule.ID,
			})
		}
	}
	return issues, nil
}

// ValidateAutoMode reports whether unattended demand computation is safe for
// the sector. The checks run against the calculation rules the sector's
// evaluation would consult: its own active rules plus the active global
// ones.
func (s *Service) ValidateAutoMode(ctx context.Context, sectorID string) (AutoModeReport, error) {
	if sectorID == "" {
		return AutoModeReport{}, domain.NewValidationError("sector_id", "sector id is required")
	}
	var report AutoModeReport
	err := s.instrument(ctx, "validate_auto_mode", func(ctx context.Context) error {
		var rules []Rule
		if err := s.store.View(ctx, func(view TransactionView) error {
			for _, tier := range domain.RigidityOrder {
				for _, scope := range []Scope{domain.GlobalScope(), domain.SectorScope(sectorID)} {
					for _, rule := range view.ListPartition(PartitionKey{Scope: scope, Type: TypeCalculation, Rigidity: tier}) {
						if rule.Active {
							rules = append(rules, rule)
						}
					}
				}
			}
			return nil
		}); err != nil {
			return err
		}
		var err error
		report, err = s.autoMode.Run(ctx, sectorID, rules)
		return err
	})
	if err != nil {
		return AutoModeReport{}, err
	}
	return report, nil
}
