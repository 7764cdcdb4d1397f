package core

import (
	"context"
	"fmt"
	"time"

	blobcore "rulecore/internal/blob/core"
	"rulecore/pkg/domain"
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

// ScopePolicy decides which rule types may live in which scope. The platform
// convention presents labor and system rules as global and operational and
// calculation rules as sector-bound, but that convention is enforced only
// when the strict policy is installed.
type ScopePolicy func(scope Scope, ruleType RuleType) error

// PermissiveScopePolicy accepts every scope/type combination.
func PermissiveScopePolicy(Scope, RuleType) error { return nil }

// StrictScopePolicy pins labor and system rules to the global scope and
// operational and calculation rules to sector scopes.
func StrictScopePolicy(scope Scope, ruleType RuleType) error {
	switch ruleType {
	case TypeLabor, TypeSystem:
		if !scope.IsGlobal() {
			return domain.NewValidationError("scope", fmt.Sprintf("%s rules are global only", ruleType))
		}
	case TypeOperational, TypeCalculation:
		if scope.IsGlobal() {
			return domain.NewValidationError("scope", fmt.Sprintf("%s rules are sector bound", ruleType))
		}
	}
	return nil
}

const defaultRegistryTimeout = 5 * time.Second

// Service exposes the transactional lifecycle, precedence, classification,
// evaluation, and auto-mode operations over a persistent rule store.
type Service struct {
	store           PersistentStore
	logger          Logger
	metrics         MetricsRecorder
	tracer          Tracer
	activities      ActivityRegistry
	autoMode        *AutoModeEngine
	archive         blobcore.Store
	scopePolicy     ScopePolicy
	registryTimeout time.Duration
	nowFn           func() time.Time
}

// ServiceOption customizes a Service at construction time.
type ServiceOption func(*Service)

// WithLogger installs a structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithActivityRegistry installs the external activity registry consulted when
// rules referencing activities are created or activated.
func WithActivityRegistry(registry ActivityRegistry) ServiceOption {
	return func(s *Service) { s.activities = registry }
}

// WithAutoModeEngine replaces the default auto-mode check set.
func WithAutoModeEngine(engine *AutoModeEngine) ServiceOption {
	return func(s *Service) {
		if engine != nil {
			s.autoMode = engine
		}
	}
}

// WithScopePolicy installs the scope/type compatibility validator.
func WithScopePolicy(policy ScopePolicy) ServiceOption {
	return func(s *Service) {
		if policy != nil {
			s.scopePolicy = policy
		}
	}
}

// WithRegistryTimeout bounds activity registry lookups.
func WithRegistryTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.registryTimeout = timeout
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:           store,
		logger:          noopLogger{},
		metrics:         noopMetricsRecorder{},
		tracer:          noopTracer{},
		scopePolicy:     PermissiveScopePolicy,
		registryTimeout: defaultRegistryTimeout,
		nowFn:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.autoMode == nil {
		s.autoMode = NewDefaultAutoModeEngine(s.activities)
	}
	return s
}

// Store returns the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// instrument wraps an operation with tracing, metrics, and failure logging.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := time.Now()
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	if err != nil {
		s.logger.Error(operation+" failed", "error", err)
	}
	return err
}

// CreateRule validates and persists a new rule, appending it to its
// partition ordering.
func (s *Service) CreateRule(ctx context.Context, rule Rule) (Rule, error) {
	var created Rule
	err := s.instrument(ctx, "create_rule", func(ctx context.Context) error {
		if err := rule.Validate(); err != nil {
			return err
		}
		if err := s.scopePolicy(rule.Scope, rule.Type); err != nil {
			return err
		}
		if rule.Active {
			if err := s.activationGuard(ctx, rule); err != nil {
				return err
			}
		}
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			rule.Priority = tx.MaxPriority(rule.Partition()) + 1
			var err error
			created, err = tx.CreateRule(rule)
			return err
		})
	})
	if err != nil {
		return Rule{}, err
	}
	s.logger.Info("rule created", "rule_id", created.ID, "partition", created.Partition().String())
	return created, nil
}

// GetRule fetches a rule by id.
func (s *Service) GetRule(ctx context.Context, id string) (Rule, error) {
	var rule Rule
	err := s.instrument(ctx, "get_rule", func(context.Context) error {
		found, ok := s.store.GetRule(id)
		if !ok {
			return domain.NewRuleNotFound(id)
		}
		rule = found
		return nil
	})
	return rule, err
}

// ListRules returns the rules matching the filter, partition-then-priority
// ordered.
func (s *Service) ListRules(ctx context.Context, filter Filter) ([]Rule, error) {
	var rules []Rule
	err := s.instrument(ctx, "list_rules", func(context.Context) error {
		rules = s.store.ListRules(filter)
		return nil
	})
	return rules, err
}

// UpdateRule applies the mutator to the stored rule. Scope and type are
// fixed at creation; a rigidity change moves the rule to the end of its
// destination partition, leaving a priority gap in the source partition.
func (s *Service) UpdateRule(ctx context.Context, id string, mutator func(*Rule) error) (Rule, error) {
	var updated Rule
	err := s.instrument(ctx, "update_rule", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindRule(id)
			if !ok {
				return domain.NewRuleNotFound(id)
			}
			var err error
			updated, err = tx.UpdateRule(id, func(r *Rule) error {
				if err := mutator(r); err != nil {
					return err
				}
				if r.Scope != current.Scope {
					return domain.NewValidationError("scope", "scope is fixed at creation")
				}
				if r.Type != current.Type {
					return domain.NewValidationError("type", "rule type is fixed at creation")
				}
				r.Priority = current.Priority
				if r.Rigidity != current.Rigidity {
					r.Priority = tx.MaxPriority(r.Partition()) + 1
				}
				if err := r.Validate(); err != nil {
					return err
				}
				if r.Active {
					return s.activationGuard(ctx, *r)
				}
				return nil
			})
			return err
		})
	})
	if err != nil {
		return Rule{}, err
	}
	return updated, nil
}

// ChangeRigidity moves a rule to another tier, appending it at the end of
// the destination partition.
func (s *Service) ChangeRigidity(ctx context.Context, id string, target Rigidity) (Rule, error) {
	if !target.Valid() {
		return Rule{}, domain.NewValidationError("rigidity", fmt.Sprintf("unknown rigidity %q", target))
	}
	return s.UpdateRule(ctx, id, func(r *Rule) error {
		r.Rigidity = target
		return nil
	})
}

// ToggleRule flips the rule's active flag. Activation of a calculation rule
// is guarded by action resolution and activity existence.
func (s *Service) ToggleRule(ctx context.Context, id string) (Rule, error) {
	var toggled Rule
	err := s.instrument(ctx, "toggle_rule", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			toggled, err = tx.UpdateRule(id, func(r *Rule) error {
				r.Active = !r.Active
				if r.Active {
					return s.activationGuard(ctx, *r)
				}
				return nil
			})
			return err
		})
	})
	if err != nil {
		return Rule{}, err
	}
	return toggled, nil
}

// DeactivateRule soft-deletes a rule by clearing its active flag. The rule
// keeps its priority slot.
func (s *Service) DeactivateRule(ctx context.Context, id string) (Rule, error) {
	var deactivated Rule
	err := s.instrument(ctx, "deactivate_rule", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			deactivated, err = tx.UpdateRule(id, func(r *Rule) error {
				r.Active = false
				return nil
			})
			return err
		})
	})
	if err != nil {
		return Rule{}, err
	}
	return deactivated, nil
}

// DeleteRule removes a rule permanently. Remaining priorities in the
// partition keep their values; gaps are acceptable until the next reorder.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	return s.instrument(ctx, "delete_rule", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteRule(id)
		})
	})
}

// CloneRule copies a rule into a new inactive draft appended to the same
// partition. An empty title derives one from the source.
func (s *Service) CloneRule(ctx context.Context, id, title string) (Rule, error) {
	var clone Rule
	err := s.instrument(ctx, "clone_rule", func(ctx context.Context) error {
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			source, ok := tx.FindRule(id)
			if !ok {
				return domain.NewRuleNotFound(id)
			}
			draft := domain.CloneRule(source)
			draft.ID = ""
			draft.Active = false
			draft.Title = title
			if draft.Title == "" {
				draft.Title = "Copy of " + source.Title
			}
			draft.Priority = tx.MaxPriority(source.Partition()) + 1
			var err error
			clone, err = tx.CreateRule(draft)
			return err
		})
	})
	if err != nil {
		return Rule{}, err
	}
	s.logger.Info("rule cloned", "source_id", id, "clone_id", clone.ID)
	return clone, nil
}

// activationGuard rejects activation of calculation rules whose action does
// not resolve, and of activity insertions referencing unknown activities.
// Registry outages surface as UnavailableError, never as a validation
// failure.
func (s *Service) activationGuard(ctx context.Context, rule Rule) error {
	if rule.Type != TypeCalculation || rule.Action == nil {
		return nil
	}
	if _, err := domain.ResolveAction(rule.ID, *rule.Action); err != nil {
		return err
	}
	if rule.Action.Kind != ActionInsertActivity || s.activities == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.registryTimeout)
	defer cancel()
	ok, err := s.activities.Exists(ctx, rule.Action.ActivityID)
	if err != nil {
		return domain.UnavailableError{Dependency: "activity registry", Err: err}
	}
	if !ok {
		return domain.NewValidationError("action.activity_id", fmt.Sprintf("activity %s does not exist", rule.Action.ActivityID))
	}
	return nil
}
