// Package model contains the records stored in the single table: models,
// and submodels that live in their parent model's partition.
package model

import (
	"fmt"
	"time"

	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

// Discriminators stored in the "model" attribute and used as hash key of the model index.
const (
	KindModel    = "model"
	KindSubModel = "submodel"
)

// ModelKey returns the primary key of the model called name.
func ModelKey(name string) table.PrimaryKey {
	key := "model#" + name
	return table.PrimaryKey{PK: key, SK: key}
}

// SubModelKey returns the primary key of submodel name under parent.
func SubModelKey(parent, name string) table.PrimaryKey {
	return table.PrimaryKey{
		PK: "model#" + parent,
		SK: subModelPrefix(parent) + name,
	}
}

func subModelPrefix(parent string) string {
	return "model#" + parent + "#submodel#"
}

type Model struct {
	PK        string    `dynamodbav:"pk"`
	SK        string    `dynamodbav:"sk"`
	Kind      string    `dynamodbav:"model"`
	Name      string    `dynamodbav:"name"`
	Value     int32     `dynamodbav:"value"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// New returns a model with its keys set and CreatedAt at the current time.
func New(name string, value int32) Model {
	key := ModelKey(name)
	return Model{
		PK:        key.PK,
		SK:        key.SK,
		Kind:      KindModel,
		Name:      name,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
}

func (m Model) Record() (table.Record, error) {
	return marshal(m)
}

type SubModel struct {
	PK        string    `dynamodbav:"pk"`
	SK        string    `dynamodbav:"sk"`
	Kind      string    `dynamodbav:"model"`
	Name      string    `dynamodbav:"name"`
	Parent    string    `dynamodbav:"parent"`
	CreatedAt time.Time `dynamodbav:"created_at"`
}

// NewSubModel returns submodel name of the parent model, with CreatedAt at the current time.
func NewSubModel(parent, name string) SubModel {
	key := SubModelKey(parent, name)
	return SubModel{
		PK:        key.PK,
		SK:        key.SK,
		Kind:      KindSubModel,
		Name:      name,
		Parent:    parent,
		CreatedAt: time.Now().UTC(),
	}
}

func (s SubModel) Record() (table.Record, error) {
	return marshal(s)
}

func marshal(v any) (table.Record, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return item, nil
}

func unmarshal[T any](rec table.Record) (T, error) {
	var v T
	if err := attributevalue.UnmarshalMap(rec, &v); err != nil {
		return v, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return v, nil
}
