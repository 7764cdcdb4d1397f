package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"rulecore/pkg/domain"
)

func calcRule(id, sector string, rigidity domain.Rigidity, priority int) Rule {
	return Rule{
		Base:     domain.Base{ID: id},
		Scope:    domain.SectorScope(sector),
		Type:     domain.TypeCalculation,
		Rigidity: rigidity,
		Title:    "rule " + id,
		Priority: priority,
		Active:   true,
		Action:   &domain.Action{Kind: domain.ActionAddMinutes, Minutes: decimal.NewFromInt(5)},
	}
}

func TestCreateUpdateDeleteRule(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var created Rule
	err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.CreateRule(calcRule("", "s1", domain.RigidityMandatory, 1))
		return err
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created.Base)
	}

	err = store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateRule(created.ID, func(r *Rule) error {
			r.Title = "renamed"
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := store.GetRule(created.ID)
	if !ok || got.Title != "renamed" {
		t.Fatalf("update not visible: %+v ok=%v", got, ok)
	}

	err = store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteRule(created.ID)
	})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.GetRule(created.ID); ok {
		t.Fatalf("rule survived hard delete")
	}
}

func TestUpdateMissingRuleIsNotFound(t *testing.T) {
	store := NewStore()
	err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateRule("ghost", func(*Rule) error { return nil })
		return err
	})
	var notFound domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestTransactionRollbackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateRule(calcRule("keep", "s1", domain.RigidityMandatory, 1))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("mid-transaction failure")
	err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateRule(calcRule("drop", "s1", domain.RigidityMandatory, 2)); err != nil {
			return err
		}
		if _, err := tx.UpdateRule("keep", func(r *Rule) error {
			r.Priority = 99
			return nil
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected injected failure, got %v", err)
	}

	if _, ok := store.GetRule("drop"); ok {
		t.Fatalf("aborted create leaked into committed state")
	}
	kept, _ := store.GetRule("keep")
	if kept.Priority != 1 {
		t.Fatalf("aborted update leaked: priority=%d", kept.Priority)
	}
}

func TestListPartitionOrdersByPriority(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	err := store.RunInTransaction(ctx, func(tx Transaction) error {
		for i, id := range []string{"c", "a", "b"} {
			if _, err := tx.CreateRule(calcRule(id, "s1", domain.RigidityFlexible, 3-i)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	key := PartitionKey{Scope: domain.SectorScope("s1"), Type: domain.TypeCalculation, Rigidity: domain.RigidityFlexible}
	var ids []string
	if err := store.View(ctx, func(v TransactionView) error {
		for _, r := range v.ListPartition(key) {
			ids = append(ids, r.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	want := []string{"b", "a", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("partition order %v, want %v", ids, want)
		}
	}
}

func TestMaxPriorityScopedToPartition(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateRule(calcRule("s1-rule", "s1", domain.RigidityMandatory, 7)); err != nil {
			return err
		}
		if _, err := tx.CreateRule(calcRule("s2-rule", "s2", domain.RigidityMandatory, 3)); err != nil {
			return err
		}
		key := PartitionKey{Scope: domain.SectorScope("s2"), Type: domain.TypeCalculation, Rigidity: domain.RigidityMandatory}
		if got := tx.MaxPriority(key); got != 3 {
			t.Errorf("max priority leaked across partitions: got %d", got)
		}
		empty := PartitionKey{Scope: domain.GlobalScope(), Type: domain.TypeLabor, Rigidity: domain.RigidityMandatory}
		if got := tx.MaxPriority(empty); got != 0 {
			t.Errorf("empty partition max priority: got %d", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewStore()
	store.SetClock(func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) })
	ctx := context.Background()
	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateRule(calcRule("r1", "s1", domain.RigidityDesirable, 1))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	restored := NewStore()
	restored.ImportState(store.ExportState())
	got, ok := restored.GetRule("r1")
	if !ok {
		t.Fatalf("rule lost in snapshot round trip")
	}
	if got.Rigidity != domain.RigidityDesirable || got.Action == nil {
		t.Fatalf("snapshot dropped fields: %+v", got)
	}
}

func TestViewReturnsClones(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	if err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateRule(calcRule("r1", "s1", domain.RigidityMandatory, 1))
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, _ := store.GetRule("r1")
	got.Action.Kind = domain.ActionMultiplyDemand
	again, _ := store.GetRule("r1")
	if again.Action.Kind != domain.ActionAddMinutes {
		t.Fatalf("caller mutation leaked into committed state")
	}
}
