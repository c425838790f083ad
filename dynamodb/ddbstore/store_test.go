package ddbstore

import (
	"context"
	"testing"

	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

var testBackends = []Backend{BackendBTree, BackendBadger}

func newTestStore(t *testing.T, backend Backend, optFns ...func(*Options)) *DB {
	opts := Options{Backend: backend}
	for _, fn := range optFns {
		fn(&opts)
	}
	store, err := NewTemporary(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// eachBackend runs fn against a fresh store for every backend.
func eachBackend(t *testing.T, fn func(t *testing.T, store *DB)) {
	for _, backend := range testBackends {
		t.Run(string(backend), func(t *testing.T) {
			fn(t, newTestStore(t, backend))
		})
	}
}

func modelRecord(pk, sk, model string) table.Record {
	return table.Record{
		"pk":    table.S(pk),
		"sk":    table.S(sk),
		"model": table.S(model),
	}
}

func mustPut(t *testing.T, store *DB, recs ...table.Record) {
	t.Helper()
	for _, rec := range recs {
		require.NoError(t, store.PutItem(context.Background(), rec))
	}
}

// seedFoo stores model foo with submodels bar and baz.
func seedFoo(t *testing.T, store *DB) {
	mustPut(t, store,
		modelRecord("model#foo", "model#foo", "model"),
		modelRecord("model#foo", "model#foo#submodel#bar", "submodel"),
		modelRecord("model#foo", "model#foo#submodel#baz", "submodel"),
	)
}

func sortKeys(items []table.Record) []string {
	sks := make([]string, 0, len(items))
	for _, item := range items {
		sk, _ := table.StringAttr(item, table.AttrSortKey)
		sks = append(sks, sk)
	}
	return sks
}

func modelIndex() *string {
	return aws.String(table.ModelIndex)
}

func numberAttr(v string) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: v}
}
