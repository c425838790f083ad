package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
)

// Scan returns records of the table, or of the model index when index is set,
// in key order. A non-nil limit caps the number of records and must be positive.
func (db *DB) Scan(ctx context.Context, index *string, limit *int32) (*ddbiface.ScanOutput, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if limit != nil && *limit <= 0 {
		return nil, ddbiface.NewValidationError("scan limit must be positive, got %d", *limit)
	}
	db.metrics.scans.Inc()

	space, ok, err := db.resolveIndex(index)
	if err != nil {
		return nil, err
	}
	out := &ddbiface.ScanOutput{Items: []table.Record{}}
	if !ok {
		return out, nil
	}

	maxItems := maxResultCount
	if limit != nil {
		maxItems = *limit
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	err = db.storage.ascend(space, nil, "", func(rec table.Record) bool {
		if out.Count >= maxItems {
			return false
		}
		out.Items = append(out.Items, rec)
		out.Count++
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out.ScannedCount = out.Count
	db.metrics.itemsRead.Add(len(out.Items))
	return out, nil
}
