package ddbiface

import (
	"fmt"

	"github.com/acksell/singletable/dynamodb/table"
)

// MaxTransactItems mirrors the DynamoDB limit on actions per transaction.
const MaxTransactItems = 100

// TransactItem is one action of a TransactWriteItems call.
// Exactly one of ConditionCheck and Put must be set.
type TransactItem struct {
	ConditionCheck *ConditionCheck
	Put            *PutAction
}

// ConditionCheck asserts that an item exists at Key and carries the given
// model discriminator. It writes nothing.
type ConditionCheck struct {
	Key   table.PrimaryKey
	Model string
}

type PutAction struct {
	Item table.Record
}

// ConditionCheckExists builds a check that (pk, sk) exists with the given model.
func ConditionCheckExists(pk, sk, model string) TransactItem {
	return TransactItem{ConditionCheck: &ConditionCheck{
		Key:   table.PrimaryKey{PK: pk, SK: sk},
		Model: model,
	}}
}

// Put builds a put action.
func Put(record table.Record) TransactItem {
	return TransactItem{Put: &PutAction{Item: record}}
}

// Satisfied reports whether the stored item (nil when absent) passes the check.
func (c *ConditionCheck) Satisfied(stored table.Record) bool {
	if stored == nil {
		return false
	}
	model, _ := table.StringAttr(stored, table.AttrModel)
	return model == c.Model
}

// Target returns the primary key the action operates on.
func (ti TransactItem) Target() (table.PrimaryKey, error) {
	switch {
	case ti.ConditionCheck != nil && ti.Put != nil:
		return table.PrimaryKey{}, NewValidationError("transact item must set exactly one of ConditionCheck and Put")
	case ti.ConditionCheck != nil:
		if ti.ConditionCheck.Key.PK == "" || ti.ConditionCheck.Key.SK == "" {
			return table.PrimaryKey{}, NewValidationError("condition check key must have pk and sk")
		}
		return ti.ConditionCheck.Key, nil
	case ti.Put != nil:
		key, err := table.ExtractPrimaryKey(ti.Put.Item)
		if err != nil {
			return table.PrimaryKey{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return key, nil
	default:
		return table.PrimaryKey{}, NewValidationError("empty transact item, must be condition check or put")
	}
}
