package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
)

// GetItem returns a copy of the record stored at (pk, sk), or nil when absent.
func (db *DB) GetItem(ctx context.Context, pk, sk string) (table.Record, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if pk == "" || sk == "" {
		return nil, ddbiface.NewValidationError("get item requires pk and sk")
	}
	db.metrics.gets.Inc()

	db.mu.RLock()
	defer db.mu.RUnlock()

	rec, found, err := db.storage.get(primaryTuple(table.PrimaryKey{PK: pk, SK: sk}))
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if !found {
		return nil, nil
	}
	db.metrics.itemsRead.Inc()
	return rec, nil
}
