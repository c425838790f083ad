package ddbstore

import (
	"fmt"

	"github.com/acksell/singletable/dynamodb/table"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const badgerMemTableSize = 8 << 20

// badgerStorage keeps both stores in one BadgerDB instance, separated by a
// keyspace byte. Every apply is a single badger transaction.
type badgerStorage struct {
	db *badger.DB
}

func newBadgerStorage(logger *zap.Logger) (*badgerStorage, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithMemTableSize(badgerMemTableSize).
		WithLogger(badgerLogger{logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &badgerStorage{db: db}, nil
}

func (s *badgerStorage) get(key tupleKey) (table.Record, bool, error) {
	var rec table.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(tableSpace, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err = deserializeRecord(val)
			return err
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get item: %w", err)
	}
	return rec, true, nil
}

func (s *badgerStorage) apply(writes []write) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, w := range writes {
			data, err := serializeRecord(w.record)
			if err != nil {
				return err
			}
			if err := txn.Set(encodeKey(tableSpace, w.key), data); err != nil {
				return fmt.Errorf("put item: %w", err)
			}
			if w.stale != nil {
				if err := deleteStaleEntry(txn, w); err != nil {
					return fmt.Errorf("delete stale index entry: %w", err)
				}
			}
			if err := txn.Set(encodeKey(indexSpace, w.ikey), data); err != nil {
				return fmt.Errorf("put index entry: %w", err)
			}
		}
		return nil
	})
}

func deleteStaleEntry(txn *badger.Txn, w write) error {
	key := encodeKey(indexSpace, *w.stale)
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	var entry table.Record
	err = item.Value(func(val []byte) error {
		entry, err = deserializeRecord(val)
		return err
	})
	if err != nil {
		return err
	}
	if !ownsIndexEntry(entry, w.key) {
		return nil
	}
	return txn.Delete(key)
}

func (s *badgerStorage) ascend(space keyspace, hash *string, sortPrefix string, fn func(table.Record) bool) error {
	prefix := []byte{byte(space)}
	if hash != nil {
		prefix = append(encodeHashPrefix(space, *hash), sortPrefix...)
	}

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec table.Record
			err := it.Item().Value(func(val []byte) error {
				var err error
				rec, err = deserializeRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if !fn(rec) {
				return nil
			}
		}
		return nil
	})
}

func (s *badgerStorage) count() (int64, error) {
	var n int64
	prefix := []byte{byte(tableSpace)}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *badgerStorage) clear() error {
	return s.db.DropAll()
}

func (s *badgerStorage) close() error {
	return s.db.Close()
}

// badgerLogger routes BadgerDB's log output through zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}
