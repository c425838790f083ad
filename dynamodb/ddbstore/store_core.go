package ddbstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Backend selects the storage engine behind an emulated table.
type Backend string

const (
	// BackendBTree keeps records in ordered in-memory B-trees.
	BackendBTree Backend = "btree"
	// BackendBadger keeps records in an in-memory BadgerDB instance.
	BackendBadger Backend = "badger"
)

// Options configures an emulated table.
type Options struct {
	// Backend defaults to BackendBTree.
	Backend Backend
	// StrictIndexes makes Query and Scan fail with ErrUnsupportedIndex for
	// unknown index names instead of returning an empty result.
	StrictIndexes bool
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// DB is an in-process emulation of a single DynamoDB table with the "model"
// secondary index. It implements ddbiface.Database and is safe for concurrent use.
//
// All operations on one DB are serialised by a readers/writer lock, so every
// write (including a whole transaction) is observed atomically by readers.
type DB struct {
	def     table.TableDefinition
	opts    Options
	log     *zap.Logger
	metrics *storeMetrics

	mu      sync.RWMutex
	storage storage
}

var _ ddbiface.Database = (*DB)(nil)

// New creates an empty emulated table with the given name.
func New(name string, opts Options) (*DB, error) {
	if name == "" {
		return nil, ddbiface.NewValidationError("table name is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Backend == "" {
		opts.Backend = BackendBTree
	}

	log := opts.Logger.With(zap.String("table", name), zap.String("backend", string(opts.Backend)))

	var (
		st  storage
		err error
	)
	switch opts.Backend {
	case BackendBTree:
		st = newBTreeStorage()
	case BackendBadger:
		st, err = newBadgerStorage(log)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown backend %q", opts.Backend)
	}

	return &DB{
		def:     table.SingleTable(name),
		opts:    opts,
		log:     log,
		metrics: newStoreMetrics(),
		storage: st,
	}, nil
}

// NewTemporary creates an emulated table with a unique "single-table-<uuid>" name.
func NewTemporary(opts Options) (*DB, error) {
	return New("single-table-"+uuid.NewString(), opts)
}

// Close releases the backend. The DB must not be used afterwards.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.storage.close()
}

func (db *DB) TableName() string {
	return db.def.Name
}

// Definition returns the key schema of the emulated table.
func (db *DB) Definition() table.TableDefinition {
	return db.def
}

// resolveIndex maps an optional index name to the keyspace it reads.
// ok is false for unknown names in non-strict mode.
func (db *DB) resolveIndex(index *string) (space keyspace, ok bool, err error) {
	if index == nil {
		return tableSpace, true, nil
	}
	if _, found := db.def.GSI(*index); found {
		return indexSpace, true, nil
	}
	if db.opts.StrictIndexes {
		return 0, false, fmt.Errorf("%w: %q", ddbiface.ErrUnsupportedIndex, *index)
	}
	db.log.Warn("unsupported index, returning empty result", zap.String("index", *index))
	return 0, false, nil
}

// prepareWriteLocked builds the write that stores rec at key in both stores.
// The caller must hold db.mu for writing.
func (db *DB) prepareWriteLocked(key table.PrimaryKey, rec table.Record) (write, error) {
	ikey := indexTuple(table.ExtractIndexKey(rec))
	w := write{
		key:    primaryTuple(key),
		ikey:   ikey,
		record: rec,
	}

	old, found, err := db.storage.get(w.key)
	if err != nil {
		return write{}, err
	}
	if found {
		oldIKey := indexTuple(table.ExtractIndexKey(old))
		if oldIKey != ikey {
			w.stale = &oldIKey
		}
	}
	return w, nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("operation aborted: %w", err)
	}
	return nil
}
