package ddbstore

import (
	"context"
	"fmt"
	"math"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
)

// maxResultCount caps Count; results beyond it are not returned.
var maxResultCount int32 = math.MaxInt32

// Query returns the records whose hash key equals pk and whose sort key starts
// with skPrefix, in ascending sort key order. With index set to "model" the
// hash key is the model attribute; an empty skPrefix matches every sort key.
func (db *DB) Query(ctx context.Context, index *string, pk, skPrefix string) (*ddbiface.QueryOutput, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	db.metrics.queries.Inc()

	space, ok, err := db.resolveIndex(index)
	if err != nil {
		return nil, err
	}
	out := &ddbiface.QueryOutput{Items: []table.Record{}}
	if !ok {
		return out, nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	err = db.storage.ascend(space, &pk, skPrefix, func(rec table.Record) bool {
		if out.Count >= maxResultCount {
			return false
		}
		out.Items = append(out.Items, rec)
		out.Count++
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	db.metrics.itemsRead.Add(len(out.Items))
	return out, nil
}
