package domain

import "context"

// Filter selects rules in list queries. Zero-value fields are ignored.
type Filter struct {
	Scope      *Scope
	Type       *RuleType
	Rigidity   *Rigidity
	ActiveOnly bool
}

// Matches reports whether the rule satisfies every set filter field.
func (f Filter) Matches(r Rule) bool {
	if f.Scope != nil && r.Scope != *f.Scope {
		return false
	}
	if f.Type != nil && r.Type != *f.Type {
		return false
	}
	if f.Rigidity != nil && r.Rigidity != *f.Rigidity {
		return false
	}
	if f.ActiveOnly && !r.Active {
		return false
	}
	return true
}

// Transaction exposes the mutations a persistence implementation must
// support within an atomic scope. Reordering is a multi-row operation, so
// either every write in the scope commits or none does.
type Transaction interface {
	CreateRule(Rule) (Rule, error)
	UpdateRule(id string, mutator func(*Rule) error) (Rule, error)
	DeleteRule(id string) error
	FindRule(id string) (Rule, bool)
	// ListPartition returns the partition's rules sorted ascending by
	// priority, inactive rules included.
	ListPartition(key PartitionKey) []Rule
	// MaxPriority returns the highest priority in the partition, 0 if empty.
	MaxPriority(key PartitionKey) int
	// Changes returns the mutations recorded so far in this transaction.
	Changes() []Change
}

// TransactionView provides read-only access to committed-or-pending state.
type TransactionView interface {
	FindRule(id string) (Rule, bool)
	ListRules(Filter) []Rule
	ListPartition(key PartitionKey) []Rule
}

// PersistentStore is the narrow persistence interface the engine is
// specified against. Implementations must make RunInTransaction atomic:
// a returned error leaves stored state unchanged.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRule(id string) (Rule, bool)
	ListRules(Filter) []Rule
}
