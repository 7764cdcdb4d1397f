package core

import (
	"context"
	"fmt"

	"rulecore/pkg/domain"
)

// Reorder renumbers a partition to the caller-supplied order. The id set
// must exactly match the partition's current membership; any drop, addition,
// or cross-tier drag rejects the whole call with a PartitionMismatchError
// and changes nothing. On success every rule is renumbered 1..N atomically
// and the new ordering is returned.
func (s *Service) Reorder(ctx context.Context, partition PartitionKey, orderedIDs []string) ([]Rule, error) {
	var reordered []Rule
	err := s.instrument(ctx, "reorder", func(ctx context.Context) error {
		seen := make(map[string]struct{}, len(orderedIDs))
		for _, id := range orderedIDs {
			if _, dup := seen[id]; dup {
				return domain.NewValidationError("rule_ids", fmt.Sprintf("duplicate id %s", id))
			}
			seen[id] = struct{}{}
		}
		return s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := checkMembership(tx, partition, orderedIDs); err != nil {
				return err
			}
			for position, id := range orderedIDs {
				target := position + 1
				current, _ := tx.FindRule(id)
				if current.Priority == target {
					continue
				}
				if _, err := tx.UpdateRule(id, func(r *Rule) error {
					r.Priority = target
					return nil
				}); err != nil {
					return err
				}
			}
			reordered = tx.ListPartition(partition)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return reordered, nil
}

// checkMembership verifies the requested id set equals the partition's
// membership, distinguishing dropped ids, unknown ids, and rules that live
// in another partition (the cross-tier drag case).
func checkMembership(tx Transaction, partition PartitionKey, orderedIDs []string) error {
	members := make(map[string]struct{})
	for _, rule := range tx.ListPartition(partition) {
		members[rule.ID] = struct{}{}
	}

	mismatch := domain.PartitionMismatchError{Partition: partition}
	requested := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		requested[id] = struct{}{}
		if _, ok := members[id]; ok {
			continue
		}
		mismatch.Unexpected = append(mismatch.Unexpected, id)
		if other, found := tx.FindRule(id); found && other.Partition() != partition {
			mismatch.CrossTier = true
		}
	}
	for _, rule := range tx.ListPartition(partition) {
		if _, ok := requested[rule.ID]; !ok {
			mismatch.Missing = append(mismatch.Missing, rule.ID)
		}
	}
	if len(mismatch.Missing) > 0 || len(mismatch.Unexpected) > 0 {
		return mismatch
	}
	return nil
}
