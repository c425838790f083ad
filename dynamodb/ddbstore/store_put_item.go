package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"go.uber.org/zap"
)

// PutItem stores rec in the table and the model index, replacing any record
// with the same primary key. Both stores are updated under one write lock.
func (db *DB) PutItem(ctx context.Context, rec table.Record) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	key, err := table.ExtractPrimaryKey(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ddbiface.ErrValidation, err)
	}
	db.metrics.puts.Inc()

	db.mu.Lock()
	defer db.mu.Unlock()

	w, err := db.prepareWriteLocked(key, rec)
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	if err := db.storage.apply([]write{w}); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	db.log.Debug("put item", zap.Stringer("key", key))
	return nil
}
