package ddbstore

import (
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/google/btree"
)

const btreeDegree = 32

type document struct {
	key    tupleKey
	record table.Record
}

func lessDocument(l, r document) bool {
	return l.key.less(r.key)
}

// btreeStorage keeps both stores as in-memory B-trees.
type btreeStorage struct {
	items *btree.BTreeG[document]
	index *btree.BTreeG[document]
}

func newBTreeStorage() *btreeStorage {
	return &btreeStorage{
		items: btree.NewG(btreeDegree, lessDocument),
		index: btree.NewG(btreeDegree, lessDocument),
	}
}

func (s *btreeStorage) tree(space keyspace) *btree.BTreeG[document] {
	if space == indexSpace {
		return s.index
	}
	return s.items
}

func (s *btreeStorage) get(key tupleKey) (table.Record, bool, error) {
	doc, found := s.items.Get(document{key: key})
	if !found {
		return nil, false, nil
	}
	return doc.record.Clone(), true, nil
}

func (s *btreeStorage) apply(writes []write) error {
	for _, w := range writes {
		rec := w.record.Clone()
		s.items.ReplaceOrInsert(document{key: w.key, record: rec})
		if w.stale != nil {
			if doc, found := s.index.Get(document{key: *w.stale}); found && ownsIndexEntry(doc.record, w.key) {
				s.index.Delete(doc)
			}
		}
		s.index.ReplaceOrInsert(document{key: w.ikey, record: rec})
	}
	return nil
}

func (s *btreeStorage) ascend(space keyspace, hash *string, sortPrefix string, fn func(table.Record) bool) error {
	tree := s.tree(space)
	if hash == nil {
		tree.Ascend(func(doc document) bool {
			return fn(doc.record.Clone())
		})
		return nil
	}
	pivot := document{key: tupleKey{hash: *hash, sort: sortPrefix}}
	tree.AscendGreaterOrEqual(pivot, func(doc document) bool {
		if doc.key.hash != *hash || !table.HasPrefix(doc.key.sort, sortPrefix) {
			return false
		}
		return fn(doc.record.Clone())
	})
	return nil
}

func (s *btreeStorage) count() (int64, error) {
	return int64(s.items.Len()), nil
}

func (s *btreeStorage) clear() error {
	s.items.Clear(false)
	s.index.Clear(false)
	return nil
}

func (s *btreeStorage) close() error {
	return s.clear()
}
