package ddbremote

import (
	"context"
	"testing"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testTable = "single-table"

func newTestDB(t *testing.T, opts Options) (*DB, *mockClient) {
	client := &mockClient{}
	t.Cleanup(func() { client.AssertExpectations(t) })
	return New(client, testTable, opts), client
}

func item(pk, sk, model string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk":    &types.AttributeValueMemberS{Value: pk},
		"sk":    &types.AttributeValueMemberS{Value: sk},
		"model": &types.AttributeValueMemberS{Value: model},
	}
}

func TestDB_CreateTable(t *testing.T) {
	db, client := newTestDB(t, Options{})

	client.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == testTable &&
			len(in.GlobalSecondaryIndexes) == 1 &&
			aws.ToString(in.GlobalSecondaryIndexes[0].IndexName) == "model"
	})).Return(&dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   aws.String(testTable),
			TableStatus: types.TableStatusCreating,
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndexDescription{
				{IndexName: aws.String("model")},
			},
		},
	}, nil)

	desc, err := db.CreateTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testTable, desc.TableName)
	assert.Equal(t, ddbiface.TableStatusCreating, desc.Status)
	assert.Equal(t, "pk", desc.PartitionKey)
	assert.Equal(t, "sk", desc.SortKey)
	assert.Equal(t, []string{"model"}, desc.IndexNames)
}

func TestDB_DescribeTable_NotFound(t *testing.T) {
	db, client := newTestDB(t, Options{})
	client.On("DescribeTable", mock.Anything, mock.Anything).
		Return(nil, &types.ResourceNotFoundException{Message: aws.String("no such table")})

	_, err := db.DescribeTable(context.Background())
	assert.ErrorIs(t, err, ddbiface.ErrNotFound)
}

func TestDB_GetItem(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
			pk := in.Key["pk"].(*types.AttributeValueMemberS).Value
			sk := in.Key["sk"].(*types.AttributeValueMemberS).Value
			return pk == "model#foo" && sk == "model#foo"
		})).Return(&dynamodb.GetItemOutput{Item: item("model#foo", "model#foo", "model")}, nil)

		rec, err := db.GetItem(context.Background(), "model#foo", "model#foo")
		require.NoError(t, err)
		assert.Equal(t, table.Record(item("model#foo", "model#foo", "model")), rec)
	})

	t.Run("absent", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		rec, err := db.GetItem(context.Background(), "model#foo", "model#foo")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestDB_PutItem_InvalidRecord(t *testing.T) {
	db, _ := newTestDB(t, Options{})
	err := db.PutItem(context.Background(), table.Record{"pk": table.S("a")})
	assert.ErrorIs(t, err, ddbiface.ErrValidation)
}

func TestDB_Query(t *testing.T) {
	t.Run("table query follows pagination", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		lastKey := item("model#foo", "model#foo#submodel#bar", "submodel")

		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return in.IndexName == nil &&
				aws.ToString(in.KeyConditionExpression) != "" &&
				in.ExclusiveStartKey == nil
		})).Return(&dynamodb.QueryOutput{
			Items:            []map[string]types.AttributeValue{lastKey},
			Count:            1,
			LastEvaluatedKey: lastKey,
		}, nil).Once()
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			return in.ExclusiveStartKey != nil
		})).Return(&dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{item("model#foo", "model#foo#submodel#baz", "submodel")},
			Count: 1,
		}, nil).Once()

		out, err := db.Query(context.Background(), nil, "model#foo", "model#foo#submodel#")
		require.NoError(t, err)
		assert.EqualValues(t, 2, out.Count)
		assert.Len(t, out.Items, 2)
	})

	t.Run("model index binds model attribute", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		client.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
			if aws.ToString(in.IndexName) != "model" {
				return false
			}
			for _, name := range in.ExpressionAttributeNames {
				if name == "model" {
					return true
				}
			}
			return false
		})).Return(&dynamodb.QueryOutput{Count: 0}, nil)

		out, err := db.Query(context.Background(), aws.String("model"), "model", "model#foo")
		require.NoError(t, err)
		assert.Empty(t, out.Items)
	})

	t.Run("unknown index does not call the service", func(t *testing.T) {
		db, _ := newTestDB(t, Options{})
		out, err := db.Query(context.Background(), aws.String("nope"), "model", "")
		require.NoError(t, err)
		assert.Empty(t, out.Items)
	})

	t.Run("unknown index in strict mode", func(t *testing.T) {
		db, _ := newTestDB(t, Options{StrictIndexes: true})
		_, err := db.Query(context.Background(), aws.String("nope"), "model", "")
		assert.ErrorIs(t, err, ddbiface.ErrUnsupportedIndex)
	})
}

func TestDB_Scan(t *testing.T) {
	t.Run("limit", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		client.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
			return aws.ToInt32(in.Limit) == 1
		})).Return(&dynamodb.ScanOutput{
			Items:            []map[string]types.AttributeValue{item("model#foo", "model#foo", "model")},
			Count:            1,
			ScannedCount:     1,
			LastEvaluatedKey: item("model#foo", "model#foo", "model"),
		}, nil).Once()

		out, err := db.Scan(context.Background(), nil, aws.Int32(1))
		require.NoError(t, err)
		assert.EqualValues(t, 1, out.Count)
		assert.EqualValues(t, 1, out.ScannedCount)
		assert.Len(t, out.Items, 1)
	})

	t.Run("invalid limit", func(t *testing.T) {
		db, _ := newTestDB(t, Options{})
		_, err := db.Scan(context.Background(), nil, aws.Int32(0))
		assert.ErrorIs(t, err, ddbiface.ErrValidation)
	})
}

func TestDB_TransactWriteItems(t *testing.T) {
	t.Run("builds condition check and put", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		client.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			if len(in.TransactItems) != 2 {
				return false
			}
			check, put := in.TransactItems[0].ConditionCheck, in.TransactItems[1].Put
			return check != nil && put != nil &&
				aws.ToString(check.ConditionExpression) != "" &&
				len(check.ExpressionAttributeValues) == 1 &&
				aws.ToString(put.TableName) == testTable
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		err := db.TransactWriteItems(context.Background(), []ddbiface.TransactItem{
			ddbiface.ConditionCheckExists("model#foo", "model#foo", "model"),
			ddbiface.Put(item("model#foo", "model#foo#submodel#bar", "submodel")),
		})
		require.NoError(t, err)
	})

	t.Run("cancellation is translated", func(t *testing.T) {
		db, client := newTestDB(t, Options{})
		client.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, &types.TransactionCanceledException{
			Message: aws.String("Transaction cancelled"),
			CancellationReasons: []types.CancellationReason{
				{Code: aws.String("ConditionalCheckFailed")},
				{Code: aws.String("None")},
			},
		})

		err := db.TransactWriteItems(context.Background(), []ddbiface.TransactItem{
			ddbiface.ConditionCheckExists("model#nope", "model#nope", "model"),
			ddbiface.Put(item("model#nope", "model#nope#submodel#x", "submodel")),
		})
		assert.ErrorIs(t, err, ddbiface.ErrConflict)
	})

	t.Run("empty batch", func(t *testing.T) {
		db, _ := newTestDB(t, Options{})
		err := db.TransactWriteItems(context.Background(), nil)
		assert.ErrorIs(t, err, ddbiface.ErrValidation)
	})
}
