package ddbremote

import (
	"context"
	"time"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"golang.org/x/sync/semaphore"
)

// Gate defaults.
const (
	DefaultGatePermits      = 5
	DefaultGateCreateSettle = 200 * time.Millisecond
)

type GateOptions struct {
	// Permits is the number of operations admitted at once. Defaults to DefaultGatePermits.
	Permits int64
	// CreateSettle is how long CreateTable keeps exclusive access after the
	// table was created. Defaults to DefaultGateCreateSettle.
	CreateSettle time.Duration
}

// Gate bounds the number of in-flight operations across every Database it wraps.
// CreateTable takes every permit, so no other operation runs while a table
// is being created and settling.
type Gate struct {
	sem     *semaphore.Weighted
	permits int64
	settle  time.Duration
}

func NewGate(opts GateOptions) *Gate {
	if opts.Permits <= 0 {
		opts.Permits = DefaultGatePermits
	}
	if opts.CreateSettle == 0 {
		opts.CreateSettle = DefaultGateCreateSettle
	}
	return &Gate{
		sem:     semaphore.NewWeighted(opts.Permits),
		permits: opts.Permits,
		settle:  opts.CreateSettle,
	}
}

// Wrap returns db with its operations admitted through g.
func (g *Gate) Wrap(db ddbiface.Database) *Gated {
	return &Gated{db: db, gate: g}
}

func (g *Gate) acquire(ctx context.Context, n int64) (func(), error) {
	if err := g.sem.Acquire(ctx, n); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(n) }, nil
}

// Gated is a Database whose operations pass through a Gate.
type Gated struct {
	db   ddbiface.Database
	gate *Gate
}

var _ ddbiface.Database = (*Gated)(nil)

// NewGated wraps db in a gate of its own.
func NewGated(db ddbiface.Database, opts GateOptions) *Gated {
	return NewGate(opts).Wrap(db)
}

func (g *Gated) TableName() string {
	return g.db.TableName()
}

// CreateTable creates the table while holding every permit. If ctx is cancelled
// during the settle wait, the created table's description is returned along
// with the context error.
func (g *Gated) CreateTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	release, err := g.gate.acquire(ctx, g.gate.permits)
	if err != nil {
		return nil, err
	}
	defer release()

	desc, err := g.db.CreateTable(ctx)
	if err != nil {
		return nil, err
	}

	t := time.NewTimer(g.gate.settle)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
		// The table exists at this point; hand back its description with the error.
		return desc, ctx.Err()
	}
	return desc, nil
}

func (g *Gated) DeleteTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer release()
	return g.db.DeleteTable(ctx)
}

func (g *Gated) DescribeTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer release()
	return g.db.DescribeTable(ctx)
}

func (g *Gated) GetItem(ctx context.Context, pk, sk string) (table.Record, error) {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer release()
	return g.db.GetItem(ctx, pk, sk)
}

func (g *Gated) PutItem(ctx context.Context, record table.Record) error {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return err
	}
	defer release()
	return g.db.PutItem(ctx, record)
}

func (g *Gated) Query(ctx context.Context, index *string, pk, skPrefix string) (*ddbiface.QueryOutput, error) {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer release()
	return g.db.Query(ctx, index, pk, skPrefix)
}

func (g *Gated) Scan(ctx context.Context, index *string, limit *int32) (*ddbiface.ScanOutput, error) {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer release()
	return g.db.Scan(ctx, index, limit)
}

func (g *Gated) TransactWriteItems(ctx context.Context, items []ddbiface.TransactItem) error {
	release, err := g.gate.acquire(ctx, 1)
	if err != nil {
		return err
	}
	defer release()
	return g.db.TransactWriteItems(ctx, items)
}
