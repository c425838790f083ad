package ddbstore

import (
	"context"
	"fmt"

	"github.com/acksell/singletable/dynamodb/ddbiface"
)

// CreateTable is idempotent: the emulated table exists from New onwards, so
// creating it again keeps its records.
func (db *DB) CreateTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	db.metrics.tableAdmin.Inc()
	db.log.Debug("create table")
	return db.DescribeTable(ctx)
}

// DeleteTable removes every record from both stores.
func (db *DB) DeleteTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	db.metrics.tableAdmin.Inc()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.clear(); err != nil {
		return nil, fmt.Errorf("delete table: %w", err)
	}
	db.log.Debug("delete table")
	desc := db.describe(0)
	desc.Status = ddbiface.TableStatusDeleting
	return desc, nil
}

func (db *DB) DescribeTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	n, err := db.storage.count()
	if err != nil {
		return nil, fmt.Errorf("describe table: %w", err)
	}
	return db.describe(n), nil
}

func (db *DB) describe(itemCount int64) *ddbiface.TableDescription {
	return &ddbiface.TableDescription{
		TableName:    db.def.Name,
		Status:       ddbiface.TableStatusActive,
		PartitionKey: db.def.KeyDefinitions.PartitionKey.Name,
		SortKey:      db.def.KeyDefinitions.SortKey.Name,
		IndexNames:   db.def.IndexNames(),
		ItemCount:    itemCount,
	}
}
