package table

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ModelIndex is the name of the secondary index keyed by (model, sk).
const ModelIndex = "model"

type TableDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
	GSIs           []GSIDefinition
}

// GSIDefinition represents a Global Secondary Index definition.
type GSIDefinition struct {
	Name           string
	KeyDefinitions PrimaryKeyDefinition
}

// SingleTable returns the definition every backend of this module uses:
// pk/sk primary key and the model index over (model, sk).
func SingleTable(name string) TableDefinition {
	return TableDefinition{
		Name: name,
		KeyDefinitions: PrimaryKeyDefinition{
			PartitionKey: KeyDef{Name: AttrPartitionKey, Kind: KeyKindS},
			SortKey:      KeyDef{Name: AttrSortKey, Kind: KeyKindS},
		},
		GSIs: []GSIDefinition{
			{
				Name: ModelIndex,
				KeyDefinitions: PrimaryKeyDefinition{
					PartitionKey: KeyDef{Name: AttrModel, Kind: KeyKindS},
					SortKey:      KeyDef{Name: AttrSortKey, Kind: KeyKindS},
				},
			},
		},
	}
}

// GSI looks up a secondary index by name.
func (t TableDefinition) GSI(name string) (GSIDefinition, bool) {
	for _, gsi := range t.GSIs {
		if gsi.Name == name {
			return gsi, true
		}
	}
	return GSIDefinition{}, false
}

// IndexNames lists the names of all secondary indexes.
func (t TableDefinition) IndexNames() []string {
	names := make([]string, 0, len(t.GSIs))
	for _, gsi := range t.GSIs {
		names = append(names, gsi.Name)
	}
	return names
}

// CreateTableInput renders the definition as a DynamoDB CreateTable request.
// Throughput is provisioned at the minimum, which is what local endpoints expect.
func (t TableDefinition) CreateTableInput() *dynamodb.CreateTableInput {
	throughput := &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(1),
		WriteCapacityUnits: aws.Int64(1),
	}

	attrs := map[string]KeyKind{}
	var order []string
	addAttr := func(k KeyDef) {
		if k.Name == "" {
			return
		}
		if _, ok := attrs[k.Name]; !ok {
			order = append(order, k.Name)
		}
		attrs[k.Name] = k.Kind
	}
	addAttr(t.KeyDefinitions.PartitionKey)
	addAttr(t.KeyDefinitions.SortKey)

	gsis := make([]types.GlobalSecondaryIndex, 0, len(t.GSIs))
	for _, gsi := range t.GSIs {
		addAttr(gsi.KeyDefinitions.PartitionKey)
		addAttr(gsi.KeyDefinitions.SortKey)
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName:             aws.String(gsi.Name),
			KeySchema:             keySchema(gsi.KeyDefinitions),
			Projection:            &types.Projection{ProjectionType: types.ProjectionTypeAll},
			ProvisionedThroughput: throughput,
		})
	}

	defs := make([]types.AttributeDefinition, 0, len(order))
	for _, name := range order {
		defs = append(defs, types.AttributeDefinition{
			AttributeName: aws.String(name),
			AttributeType: types.ScalarAttributeType(attrs[name]),
		})
	}

	in := &dynamodb.CreateTableInput{
		TableName:             aws.String(t.Name),
		KeySchema:             keySchema(t.KeyDefinitions),
		AttributeDefinitions:  defs,
		ProvisionedThroughput: throughput,
	}
	if len(gsis) > 0 {
		in.GlobalSecondaryIndexes = gsis
	}
	return in
}

func keySchema(k PrimaryKeyDefinition) []types.KeySchemaElement {
	schema := []types.KeySchemaElement{
		{AttributeName: aws.String(k.PartitionKey.Name), KeyType: types.KeyTypeHash},
	}
	if k.SortKey.Name != "" {
		schema = append(schema, types.KeySchemaElement{
			AttributeName: aws.String(k.SortKey.Name),
			KeyType:       types.KeyTypeRange,
		})
	}
	return schema
}
