package ddbtest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bxcodec/faker/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Record builds a record with the given keys and model discriminator.
func Record(pk, sk, model string) table.Record {
	return table.Record{
		table.AttrPartitionKey: table.S(pk),
		table.AttrSortKey:      table.S(sk),
		table.AttrModel:        table.S(model),
	}
}

// SeedModelFoo stores model foo with submodels bar and baz.
func SeedModelFoo(t testing.TB, db ddbiface.Database) {
	t.Helper()
	for _, rec := range []table.Record{
		Record("model#foo", "model#foo", "model"),
		Record("model#foo", "model#foo#submodel#bar", "submodel"),
		Record("model#foo", "model#foo#submodel#baz", "submodel"),
	} {
		require.NoError(t, db.PutItem(context.Background(), rec))
	}
}

// SortKeys returns the sk attribute of every record, in order.
func SortKeys(items []table.Record) []string {
	sks := make([]string, 0, len(items))
	for _, item := range items {
		sk, _ := table.StringAttr(item, table.AttrSortKey)
		sks = append(sks, sk)
	}
	return sks
}

// RunSuite checks that the Databases produced by newDB behave like the
// single table: point reads, prefix queries, the model index, scans and
// transactional writes.
func RunSuite(t *testing.T, newDB Factory) {
	modelIndex := aws.String(table.ModelIndex)

	t.Run("get absent item", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		rec, err := db.GetItem(context.Background(), "model#foo", "model#foo")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("put then get", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		ctx := context.Background()

		rec := Record("model#foo", "model#foo", "model")
		rec["name"] = table.S(faker.Word())
		rec["value"] = &types.AttributeValueMemberN{Value: fmt.Sprint(faker.UnixTime())}
		require.NoError(t, db.PutItem(ctx, rec))

		got, err := db.GetItem(ctx, "model#foo", "model#foo")
		require.NoError(t, err)
		assert.Equal(t, rec, got)
	})

	t.Run("query submodels by prefix", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		SeedModelFoo(t, db)

		out, err := db.Query(context.Background(), nil, "model#foo", "model#foo#submodel#")
		require.NoError(t, err)
		assert.EqualValues(t, 2, out.Count)
		assert.Equal(t, []string{"model#foo#submodel#bar", "model#foo#submodel#baz"}, SortKeys(out.Items))
	})

	t.Run("query model index", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		SeedModelFoo(t, db)
		ctx := context.Background()

		out, err := db.Query(ctx, modelIndex, "model", "model#foo")
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.Count)
		assert.Equal(t, []string{"model#foo"}, SortKeys(out.Items))

		out, err = db.Query(ctx, modelIndex, "submodel", "model#foo#submodel#bar")
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.Count)
		assert.Equal(t, []string{"model#foo#submodel#bar"}, SortKeys(out.Items))
	})

	t.Run("scan", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		SeedModelFoo(t, db)
		ctx := context.Background()

		out, err := db.Scan(ctx, nil, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, out.Count)
		assert.Len(t, out.Items, 3)

		out, err = db.Scan(ctx, modelIndex, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, out.Count)

		out, err = db.Scan(ctx, nil, aws.Int32(1))
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.Count)
		assert.EqualValues(t, 1, out.ScannedCount)
		assert.Len(t, out.Items, 1)
	})

	t.Run("transaction with existing parent", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		ctx := context.Background()
		require.NoError(t, db.PutItem(ctx, Record("model#foo", "model#foo", "model")))

		err := db.TransactWriteItems(ctx, []ddbiface.TransactItem{
			ddbiface.ConditionCheckExists("model#foo", "model#foo", "model"),
			ddbiface.Put(Record("model#foo", "model#foo#submodel#bar", "submodel")),
		})
		require.NoError(t, err)

		rec, err := db.GetItem(ctx, "model#foo", "model#foo#submodel#bar")
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})

	t.Run("transaction with missing parent", func(t *testing.T) {
		db := TemporaryTable(t, newDB(t))
		ctx := context.Background()

		err := db.TransactWriteItems(ctx, []ddbiface.TransactItem{
			ddbiface.ConditionCheckExists("model#foo", "model#foo", "model"),
			ddbiface.Put(Record("model#foo", "model#foo#submodel#bar", "submodel")),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ddbiface.ErrConflict), "got %v", err)

		rec, err := db.GetItem(ctx, "model#foo", "model#foo#submodel#bar")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}
