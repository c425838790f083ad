package ddbstore

import (
	"github.com/acksell/singletable/dynamodb/table"
)

// keyspace selects the table store or the model index store.
type keyspace byte

const (
	tableSpace keyspace = 't'
	indexSpace keyspace = 'i'
)

// tupleKey is the ordered (hash, sort) key shared by both stores:
// (pk, sk) in the table store and (model, sk) in the index store.
type tupleKey struct {
	hash string
	sort string
}

func (k tupleKey) less(o tupleKey) bool {
	if k.hash != o.hash {
		return k.hash < o.hash
	}
	return k.sort < o.sort
}

func primaryTuple(k table.PrimaryKey) tupleKey {
	return tupleKey{hash: k.PK, sort: k.SK}
}

func indexTuple(k table.IndexKey) tupleKey {
	return tupleKey{hash: k.Model, sort: k.SK}
}

// write is one record landing in both stores. stale, when set, is an index
// entry left behind by the record previously stored at key. It is only removed
// while it still belongs to key; another record may have claimed the same
// (model, sk) since.
type write struct {
	key    tupleKey
	ikey   tupleKey
	stale  *tupleKey
	record table.Record
}

// ownsIndexEntry reports whether the index document entry was written for the
// record at key. Index and table share sk, so comparing pk is enough.
func ownsIndexEntry(entry table.Record, key tupleKey) bool {
	pk, _ := table.StringAttr(entry, table.AttrPartitionKey)
	return pk == key.hash
}

// storage holds the table store and the index store of one table.
// It is not safe for concurrent use; DB serialises access with its lock.
type storage interface {
	get(key tupleKey) (table.Record, bool, error)
	// apply performs all writes as one unit.
	apply(writes []write) error
	// ascend visits records of space in key order. With hash set it only visits
	// keys with that hash whose sort component starts with sortPrefix.
	// Returning false from fn stops the iteration.
	ascend(space keyspace, hash *string, sortPrefix string, fn func(table.Record) bool) error
	count() (int64, error)
	clear() error
	close() error
}
