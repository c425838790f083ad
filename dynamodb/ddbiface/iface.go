// Package ddbiface provides the core interface for single-table database operations.
// This interface is satisfied by ddbstore.DB (the in-process emulator) and by
// ddbremote.DB (AWS DynamoDB), allowing code to work with either backend unchanged.
package ddbiface

import (
	"context"

	"github.com/acksell/singletable/dynamodb/table"
)

// Database is the operation surface of one single table.
//
// GetItem returns a nil record and a nil error when nothing is stored at the key.
// Query and Scan never paginate against the emulator; the remote backend follows
// pagination internally so both return the full result set.
type Database interface {
	TableName() string

	CreateTable(ctx context.Context) (*TableDescription, error)
	DeleteTable(ctx context.Context) (*TableDescription, error)
	DescribeTable(ctx context.Context) (*TableDescription, error)

	GetItem(ctx context.Context, pk, sk string) (table.Record, error)
	PutItem(ctx context.Context, record table.Record) error
	Query(ctx context.Context, index *string, pk, skPrefix string) (*QueryOutput, error)
	Scan(ctx context.Context, index *string, limit *int32) (*ScanOutput, error)
	TransactWriteItems(ctx context.Context, items []TransactItem) error
}

// TableDescription is the minimal table descriptor returned by the admin operations.
type TableDescription struct {
	TableName    string
	Status       string
	PartitionKey string
	SortKey      string
	IndexNames   []string
	ItemCount    int64
}

// Table status values reported by TableDescription.
const (
	TableStatusActive   = "ACTIVE"
	TableStatusDeleting = "DELETING"
	TableStatusCreating = "CREATING"
)

type QueryOutput struct {
	Items []table.Record
	Count int32
}

type ScanOutput struct {
	Items        []table.Record
	Count        int32
	ScannedCount int32
}
