package ddbstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_PutItem(t *testing.T) {
	eachBackend(t, func(t *testing.T, store *DB) {
		ctx := context.Background()

		t.Run("put is visible in table and index", func(t *testing.T) {
			mustPut(t, store, modelRecord("model#foo", "model#foo", "model"))

			rec, err := store.GetItem(ctx, "model#foo", "model#foo")
			require.NoError(t, err)
			require.NotNil(t, rec)

			q, err := store.Query(ctx, modelIndex(), "model", "model#foo")
			require.NoError(t, err)
			assert.EqualValues(t, 1, q.Count)
		})

		t.Run("overwrite replaces the record", func(t *testing.T) {
			rec := modelRecord("model#foo", "model#foo", "model")
			rec["value"] = numberAttr("7")
			mustPut(t, store, rec)

			got, err := store.GetItem(ctx, "model#foo", "model#foo")
			require.NoError(t, err)
			assert.Equal(t, numberAttr("7"), got["value"])

			q, err := store.Query(ctx, modelIndex(), "model", "model#foo")
			require.NoError(t, err)
			require.Len(t, q.Items, 1)
			assert.Equal(t, numberAttr("7"), q.Items[0]["value"])
		})

		t.Run("changing model removes stale index entry", func(t *testing.T) {
			mustPut(t, store, modelRecord("model#foo", "model#foo", "archived"))

			q, err := store.Query(ctx, modelIndex(), "model", "model#foo")
			require.NoError(t, err)
			assert.Empty(t, q.Items)

			q, err = store.Query(ctx, modelIndex(), "archived", "model#foo")
			require.NoError(t, err)
			assert.EqualValues(t, 1, q.Count)
		})

		t.Run("changing model keeps index entry claimed by another record", func(t *testing.T) {
			mustPut(t, store,
				modelRecord("pk1", "shared", "m"),
				modelRecord("pk2", "shared", "m"),
				modelRecord("pk1", "shared", "n"),
			)

			q, err := store.Query(ctx, modelIndex(), "m", "shared")
			require.NoError(t, err)
			require.Len(t, q.Items, 1)
			pk, _ := table.StringAttr(q.Items[0], table.AttrPartitionKey)
			assert.Equal(t, "pk2", pk)

			q, err = store.Query(ctx, modelIndex(), "n", "shared")
			require.NoError(t, err)
			assert.EqualValues(t, 1, q.Count)

			rec, err := store.GetItem(ctx, "pk2", "shared")
			require.NoError(t, err)
			assert.NotNil(t, rec)
		})

		t.Run("record without model lands under empty model", func(t *testing.T) {
			mustPut(t, store, table.Record{"pk": table.S("loose"), "sk": table.S("loose")})

			q, err := store.Query(ctx, modelIndex(), "", "loose")
			require.NoError(t, err)
			assert.EqualValues(t, 1, q.Count)
		})

		t.Run("caller mutations do not leak into the store", func(t *testing.T) {
			rec := modelRecord("mut", "mut", "model")
			mustPut(t, store, rec)
			rec["model"] = table.S("other")

			got, err := store.GetItem(ctx, "mut", "mut")
			require.NoError(t, err)
			assert.Equal(t, table.S("model"), got["model"])
		})
	})
}

func TestDB_PutItem_InvalidRecord(t *testing.T) {
	store := newTestStore(t, BackendBTree)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  table.Record
	}{
		{"missing pk", table.Record{"sk": table.S("a")}},
		{"missing sk", table.Record{"pk": table.S("a")}},
		{"numeric pk", table.Record{"pk": numberAttr("1"), "sk": table.S("a")}},
		{"empty sk", table.Record{"pk": table.S("a"), "sk": table.S("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.PutItem(ctx, tt.rec)
			assert.ErrorIs(t, err, ddbiface.ErrValidation)
			assert.ErrorIs(t, err, table.ErrInvalidRecord)
		})
	}

	desc, err := store.DescribeTable(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, desc.ItemCount)
}

func TestDB_PutItem_Concurrent(t *testing.T) {
	eachBackend(t, func(t *testing.T, store *DB) {
		ctx := context.Background()
		const writers, perWriter = 8, 25

		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWriter; i++ {
					sk := fmt.Sprintf("model#w%d#submodel#%03d", w, i)
					assert.NoError(t, store.PutItem(ctx, modelRecord(fmt.Sprintf("model#w%d", w), sk, "submodel")))
					_, err := store.Query(ctx, modelIndex(), "submodel", "")
					assert.NoError(t, err)
				}
			}(w)
		}
		wg.Wait()

		scan, err := store.Scan(ctx, nil, nil)
		require.NoError(t, err)
		assert.EqualValues(t, writers*perWriter, scan.Count)

		idx, err := store.Scan(ctx, modelIndex(), nil)
		require.NoError(t, err)
		assert.EqualValues(t, writers*perWriter, idx.Count)
	})
}
