package ddbstore

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// storeMetrics are process-wide operation counters, shared by every DB.
type storeMetrics struct {
	gets       *metrics.Counter
	puts       *metrics.Counter
	queries    *metrics.Counter
	scans      *metrics.Counter
	transacts  *metrics.Counter
	cancelled  *metrics.Counter
	itemsRead  *metrics.Counter
	tableAdmin *metrics.Counter
}

func opCounter(op string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`singletable_store_operations_total{op=%q}`, op))
}

func newStoreMetrics() *storeMetrics {
	return &storeMetrics{
		gets:       opCounter("get_item"),
		puts:       opCounter("put_item"),
		queries:    opCounter("query"),
		scans:      opCounter("scan"),
		transacts:  opCounter("transact_write_items"),
		cancelled:  metrics.GetOrCreateCounter(`singletable_store_transactions_cancelled_total`),
		itemsRead:  metrics.GetOrCreateCounter(`singletable_store_items_returned_total`),
		tableAdmin: opCounter("table_admin"),
	}
}
