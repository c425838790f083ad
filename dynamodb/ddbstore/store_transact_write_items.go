package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"go.uber.org/zap"
)

// TransactWriteItems applies a batch of condition checks and puts atomically.
// All conditions are evaluated first; if any fails nothing is written and a
// *ddbiface.TransactionCanceledError naming the failing item is returned.
func (db *DB) TransactWriteItems(ctx context.Context, items []ddbiface.TransactItem) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if len(items) == 0 {
		return ddbiface.NewValidationError("transaction must contain at least one item")
	}
	if len(items) > ddbiface.MaxTransactItems {
		return ddbiface.NewValidationError("transaction contains %d items, limit is %d", len(items), ddbiface.MaxTransactItems)
	}

	keys := make([]table.PrimaryKey, len(items))
	seen := make(map[table.PrimaryKey]int, len(items))
	for i, item := range items {
		key, err := item.Target()
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if j, dup := seen[key]; dup {
			return ddbiface.NewValidationError("items %d and %d target the same key %s", j, i, key)
		}
		seen[key] = i
		keys[i] = key
	}
	db.metrics.transacts.Inc()

	db.mu.Lock()
	defer db.mu.Unlock()

	// First pass: validate all conditions
	for i, item := range items {
		if item.ConditionCheck == nil {
			continue
		}
		stored, _, err := db.storage.get(primaryTuple(keys[i]))
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if !item.ConditionCheck.Satisfied(stored) {
			db.metrics.cancelled.Inc()
			db.log.Debug("transaction cancelled", zap.Int("item", i), zap.Stringer("key", keys[i]))
			return &ddbiface.TransactionCanceledError{Index: i, Reason: "ConditionalCheckFailed"}
		}
	}

	// Second pass: apply writes
	writes := make([]write, 0, len(items))
	for i, item := range items {
		if item.Put == nil {
			continue
		}
		w, err := db.prepareWriteLocked(keys[i], item.Put.Item)
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		writes = append(writes, w)
	}
	if err := db.storage.apply(writes); err != nil {
		return fmt.Errorf("transact write items: %w", err)
	}
	return nil
}
