// Package memory provides an in-memory implementation of the rule
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rulecore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the
// domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Rule aliases domain.Rule for in-memory persistence operations.
	Rule = domain.Rule
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Filter aliases domain.Filter for list queries.
	Filter = domain.Filter
	// PartitionKey aliases domain.PartitionKey.
	PartitionKey = domain.PartitionKey
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases the domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	rules map[string]Rule
}

// Snapshot captures a point-in-time clone of the store state. It is the
// durable wire shape shared with the sqlite and postgres backends.
type Snapshot struct {
	Rules map[string]Rule `json:"rules"`
}

func newMemoryState() memoryState {
	return memoryState{rules: make(map[string]Rule)}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.rules {
		cloned.rules[k] = domain.CloneRule(v)
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{Rules: make(map[string]Rule, len(state.rules))}
	for k, v := range state.rules {
		s.Rules[k] = domain.CloneRule(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Rules {
		state.rules[k] = domain.CloneRule(v)
	}
	return state
}

// Store provides an in-memory transactional rule store. Writes happen
// against a cloned state that only replaces the committed state when the
// transaction function returns nil, so a multi-row renumbering either
// applies completely or not at all.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
	idFn  func() string
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state: newMemoryState(),
		nowFn: func() time.Time { return time.Now().UTC() },
		idFn:  func() string { return uuid.NewString() },
	}
}

// SetClock overrides the transaction timestamp source (tests).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = now
}

// ImportState replaces the committed state with the snapshot contents.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// ExportState returns a deep copy of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

type view struct {
	state *memoryState
}

func (v view) FindRule(id string) (Rule, bool) {
	r, ok := v.state.rules[id]
	if !ok {
		return Rule{}, false
	}
	return domain.CloneRule(r), true
}

func (v view) ListRules(filter Filter) []Rule {
	out := make([]Rule, 0, len(v.state.rules))
	for _, r := range v.state.rules {
		if filter.Matches(r) {
			out = append(out, domain.CloneRule(r))
		}
	}
	sortRules(out)
	return out
}

func (v view) ListPartition(key PartitionKey) []Rule {
	out := make([]Rule, 0)
	for _, r := range v.state.rules {
		if r.Partition() == key {
			out = append(out, domain.CloneRule(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// sortRules orders by partition then priority for stable listings.
func sortRules(rules []Rule) {
	sort.Slice(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Scope != b.Scope {
			return a.Scope.String() < b.Scope.String()
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Rigidity != b.Rigidity {
			return a.Rigidity.Precedes(b.Rigidity)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

var _ Transaction = (*transaction)(nil)

func (tx *transaction) record(change Change) {
	tx.changes = append(tx.changes, change)
}

// Changes returns the mutations recorded so far.
func (tx *transaction) Changes() []Change {
	return append([]Change(nil), tx.changes...)
}

// CreateRule stores a new rule within the transaction.
func (tx *transaction) CreateRule(r Rule) (Rule, error) {
	if r.ID == "" {
		r.ID = tx.store.idFn()
	}
	if _, exists := tx.state.rules[r.ID]; exists {
		return Rule{}, domain.ConflictError{Partition: r.Partition(), Detail: "rule id already exists: " + r.ID}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.rules[r.ID] = domain.CloneRule(r)
	after := domain.CloneRule(r)
	tx.record(Change{Action: domain.ChangeCreate, After: &after})
	return domain.CloneRule(r), nil
}

// UpdateRule mutates a rule using the provided mutator function.
func (tx *transaction) UpdateRule(id string, mutator func(*Rule) error) (Rule, error) {
	current, ok := tx.state.rules[id]
	if !ok {
		return Rule{}, domain.NewRuleNotFound(id)
	}
	before := domain.CloneRule(current)
	working := domain.CloneRule(current)
	if err := mutator(&working); err != nil {
		return Rule{}, err
	}
	working.ID = id
	working.CreatedAt = current.CreatedAt
	working.UpdatedAt = tx.now
	tx.state.rules[id] = domain.CloneRule(working)
	after := domain.CloneRule(working)
	tx.record(Change{Action: domain.ChangeUpdate, Before: &before, After: &after})
	return domain.CloneRule(working), nil
}

// DeleteRule removes a rule from the transaction state.
func (tx *transaction) DeleteRule(id string) error {
	current, ok := tx.state.rules[id]
	if !ok {
		return domain.NewRuleNotFound(id)
	}
	delete(tx.state.rules, id)
	before := domain.CloneRule(current)
	tx.record(Change{Action: domain.ChangeDelete, Before: &before})
	return nil
}

// FindRule retrieves a rule by id from the transaction state.
func (tx *transaction) FindRule(id string) (Rule, bool) {
	return view{state: &tx.state}.FindRule(id)
}

// ListPartition returns the partition's rules sorted by priority.
func (tx *transaction) ListPartition(key PartitionKey) []Rule {
	return view{state: &tx.state}.ListPartition(key)
}

// MaxPriority returns the highest priority in the partition, 0 when empty.
func (tx *transaction) MaxPriority(key PartitionKey) int {
	max := 0
	for _, r := range tx.state.rules {
		if r.Partition() == key && r.Priority > max {
			max = r.Priority
		}
	}
	return max
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The copy replaces committed state only when fn returns nil.
func (s *Store) RunInTransaction(ctx context.Context, fn func(Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(TransactionView) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

// GetRule retrieves a rule by id from committed state.
func (s *Store) GetRule(id string) (Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindRule(id)
}

// ListRules returns committed rules matching the filter, ordered by
// partition then priority.
func (s *Store) ListRules(filter Filter) []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListRules(filter)
}
