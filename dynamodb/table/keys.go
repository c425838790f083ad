package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Reserved attribute names of the single-table schema.
const (
	AttrPartitionKey = "pk"
	AttrSortKey      = "sk"
	AttrModel        = "model"
)

// ErrInvalidRecord is returned when a record lacks a usable primary key.
var ErrInvalidRecord = errors.New("invalid record")

type KeyDef struct {
	Name string
	Kind KeyKind
}

type KeyKind string

// KeyKindS is the only key attribute type the single-table schema uses.
const KeyKindS KeyKind = "S"

type PrimaryKeyDefinition struct {
	PartitionKey KeyDef
	SortKey      KeyDef
}

// PrimaryKey addresses one entry of the table store.
type PrimaryKey struct {
	PK string
	SK string
}

func (k PrimaryKey) String() string {
	return fmt.Sprintf("(%s, %s)", k.PK, k.SK)
}

// DDB returns the key as a DynamoDB key map.
func (k PrimaryKey) DDB() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPartitionKey: &types.AttributeValueMemberS{Value: k.PK},
		AttrSortKey:      &types.AttributeValueMemberS{Value: k.SK},
	}
}

// IndexKey addresses one entry of the model index store.
// It is not unique by construction; in this schema sk already encodes the owning
// primary key, so collisions only happen when a record is overwritten.
type IndexKey struct {
	Model string
	SK    string
}

// ExtractPrimaryKey reads (pk, sk) from a record. Both attributes must be
// non-empty strings.
func ExtractPrimaryKey(r Record) (PrimaryKey, error) {
	pk, err := requiredString(r, AttrPartitionKey)
	if err != nil {
		return PrimaryKey{}, err
	}
	sk, err := requiredString(r, AttrSortKey)
	if err != nil {
		return PrimaryKey{}, err
	}
	return PrimaryKey{PK: pk, SK: sk}, nil
}

// ExtractIndexKey reads (model, sk) from a record. A record without a string
// model attribute lands in the "" index partition.
func ExtractIndexKey(r Record) IndexKey {
	model, _ := StringAttr(r, AttrModel)
	sk, _ := StringAttr(r, AttrSortKey)
	return IndexKey{Model: model, SK: sk}
}

// HasPrefix reports whether the sort key starts with prefix, byte-wise.
// The empty prefix matches every sort key.
func HasPrefix(sk, prefix string) bool {
	return strings.HasPrefix(sk, prefix)
}

func requiredString(r Record, name string) (string, error) {
	av, ok := r[name]
	if !ok || av == nil {
		return "", fmt.Errorf("%w: %q not found", ErrInvalidRecord, name)
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidRecord, name, av)
	}
	if s.Value == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrInvalidRecord, name)
	}
	return s.Value, nil
}
