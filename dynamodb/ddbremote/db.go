package ddbremote

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/acksell/singletable/dynamodb/ddbiface"
	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Options configures a remote table.
type Options struct {
	// StrictIndexes makes Query and Scan fail with ErrUnsupportedIndex for
	// unknown index names instead of returning an empty result.
	StrictIndexes bool
	// WaitTimeout bounds how long CreateTable and DeleteTable wait for the
	// table to become active or disappear. Zero means do not wait.
	WaitTimeout time.Duration
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// DB is a single table stored in DynamoDB.
type DB struct {
	client Client
	def    table.TableDefinition
	opts   Options
	log    *zap.Logger
}

var _ ddbiface.Database = (*DB)(nil)

func New(client Client, tableName string, opts Options) *DB {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &DB{
		client: client,
		def:    table.SingleTable(tableName),
		opts:   opts,
		log:    opts.Logger.With(zap.String("table", tableName)),
	}
}

func (db *DB) TableName() string {
	return db.def.Name
}

func (db *DB) CreateTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	out, err := db.client.CreateTable(ctx, db.def.CreateTableInput())
	if err != nil {
		return nil, translateError("create table", err)
	}
	db.log.Info("created table")

	if db.opts.WaitTimeout > 0 {
		waiter := dynamodb.NewTableExistsWaiter(db.client)
		err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(db.def.Name)}, db.opts.WaitTimeout)
		if err != nil {
			return nil, fmt.Errorf("wait for table %s: %w", db.def.Name, err)
		}
		return db.DescribeTable(ctx)
	}
	return describe(out.TableDescription), nil
}

func (db *DB) DeleteTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	out, err := db.client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(db.def.Name)})
	if err != nil {
		return nil, translateError("delete table", err)
	}
	db.log.Info("deleted table")

	if db.opts.WaitTimeout > 0 {
		waiter := dynamodb.NewTableNotExistsWaiter(db.client)
		err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(db.def.Name)}, db.opts.WaitTimeout)
		if err != nil {
			return nil, fmt.Errorf("wait for table %s deletion: %w", db.def.Name, err)
		}
	}
	return describe(out.TableDescription), nil
}

func (db *DB) DescribeTable(ctx context.Context) (*ddbiface.TableDescription, error) {
	out, err := db.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(db.def.Name)})
	if err != nil {
		return nil, translateError("describe table", err)
	}
	return describe(out.Table), nil
}

func (db *DB) GetItem(ctx context.Context, pk, sk string) (table.Record, error) {
	if pk == "" || sk == "" {
		return nil, ddbiface.NewValidationError("get item requires pk and sk")
	}
	out, err := db.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(db.def.Name),
		Key:            table.PrimaryKey{PK: pk, SK: sk}.DDB(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, translateError("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return table.Record(out.Item), nil
}

func (db *DB) PutItem(ctx context.Context, record table.Record) error {
	if _, err := table.ExtractPrimaryKey(record); err != nil {
		return fmt.Errorf("%w: %w", ddbiface.ErrValidation, err)
	}
	_, err := db.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(db.def.Name),
		Item:      record,
	})
	return translateError("put item", err)
}

// resolveIndex returns the hash key attribute for the optional index.
// ok is false for unknown names in non-strict mode.
func (db *DB) resolveIndex(index *string) (hashAttr string, ok bool, err error) {
	if index == nil {
		return db.def.KeyDefinitions.PartitionKey.Name, true, nil
	}
	gsi, found := db.def.GSI(*index)
	if found {
		return gsi.KeyDefinitions.PartitionKey.Name, true, nil
	}
	if db.opts.StrictIndexes {
		return "", false, fmt.Errorf("%w: %q", ddbiface.ErrUnsupportedIndex, *index)
	}
	db.log.Warn("unsupported index, returning empty result", zap.String("index", *index))
	return "", false, nil
}

func (db *DB) Query(ctx context.Context, index *string, pk, skPrefix string) (*ddbiface.QueryOutput, error) {
	hashAttr, ok, err := db.resolveIndex(index)
	if err != nil {
		return nil, err
	}
	out := &ddbiface.QueryOutput{Items: []table.Record{}}
	if !ok {
		return out, nil
	}

	keyCond := expression.Key(hashAttr).Equal(expression.Value(pk))
	if skPrefix != "" {
		keyCond = keyCond.And(expression.Key(table.AttrSortKey).BeginsWith(skPrefix))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(db.client, &dynamodb.QueryInput{
		TableName:                 aws.String(db.def.Name),
		IndexName:                 index,
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateError("query", err)
		}
		for _, item := range page.Items {
			out.Items = append(out.Items, item)
		}
		out.Count = saturatingAdd(out.Count, page.Count)
	}
	return out, nil
}

func (db *DB) Scan(ctx context.Context, index *string, limit *int32) (*ddbiface.ScanOutput, error) {
	if limit != nil && *limit <= 0 {
		return nil, ddbiface.NewValidationError("scan limit must be positive, got %d", *limit)
	}
	_, ok, err := db.resolveIndex(index)
	if err != nil {
		return nil, err
	}
	out := &ddbiface.ScanOutput{Items: []table.Record{}}
	if !ok {
		return out, nil
	}

	paginator := dynamodb.NewScanPaginator(db.client, &dynamodb.ScanInput{
		TableName: aws.String(db.def.Name),
		IndexName: index,
		Limit:     limit,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateError("scan", err)
		}
		for _, item := range page.Items {
			out.Items = append(out.Items, item)
		}
		out.ScannedCount = saturatingAdd(out.ScannedCount, page.ScannedCount)
		if limit != nil && len(out.Items) >= int(*limit) {
			out.Items = out.Items[:*limit]
			out.ScannedCount = min(out.ScannedCount, *limit)
			break
		}
	}
	out.Count = int32(min(len(out.Items), math.MaxInt32))
	return out, nil
}

func (db *DB) TransactWriteItems(ctx context.Context, items []ddbiface.TransactItem) error {
	if len(items) == 0 {
		return ddbiface.NewValidationError("transaction must contain at least one item")
	}
	if len(items) > ddbiface.MaxTransactItems {
		return ddbiface.NewValidationError("transaction contains %d items, limit is %d", len(items), ddbiface.MaxTransactItems)
	}

	transactItems := make([]types.TransactWriteItem, 0, len(items))
	for i, item := range items {
		key, err := item.Target()
		if err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if item.Put != nil {
			transactItems = append(transactItems, types.TransactWriteItem{
				Put: &types.Put{
					TableName: aws.String(db.def.Name),
					Item:      item.Put.Item,
				},
			})
			continue
		}

		cond := expression.AttributeExists(expression.Name(table.AttrPartitionKey)).
			And(expression.Name(table.AttrModel).Equal(expression.Value(item.ConditionCheck.Model)))
		expr, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("item %d: build condition: %w", i, err)
		}
		transactItems = append(transactItems, types.TransactWriteItem{
			ConditionCheck: &types.ConditionCheck{
				TableName:                 aws.String(db.def.Name),
				Key:                       key.DDB(),
				ConditionExpression:       expr.Condition(),
				ExpressionAttributeNames:  expr.Names(),
				ExpressionAttributeValues: expr.Values(),
			},
		})
	}

	_, err := db.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	return translateError("transact write items", err)
}

func describe(td *types.TableDescription) *ddbiface.TableDescription {
	if td == nil {
		return &ddbiface.TableDescription{}
	}
	desc := &ddbiface.TableDescription{
		TableName: aws.ToString(td.TableName),
		Status:    string(td.TableStatus),
		ItemCount: aws.ToInt64(td.ItemCount),
	}
	for _, k := range td.KeySchema {
		switch k.KeyType {
		case types.KeyTypeHash:
			desc.PartitionKey = aws.ToString(k.AttributeName)
		case types.KeyTypeRange:
			desc.SortKey = aws.ToString(k.AttributeName)
		}
	}
	for _, gsi := range td.GlobalSecondaryIndexes {
		desc.IndexNames = append(desc.IndexNames, aws.ToString(gsi.IndexName))
	}
	return desc
}

func saturatingAdd(a, b int32) int32 {
	if sum := int64(a) + int64(b); sum < math.MaxInt32 {
		return int32(sum)
	}
	return math.MaxInt32
}
