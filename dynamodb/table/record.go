package table

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/exp/maps"
)

// Record is one stored item: attribute name to value.
type Record map[string]types.AttributeValue

// Clone returns a copy of the record's attribute map. Attribute values are
// shared; the SDK treats them as immutable.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// StringAttr returns the string value of attribute name, if it is set and of kind S.
func StringAttr(r Record, name string) (string, bool) {
	s, ok := r[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}

// S is shorthand for a string attribute value.
func S(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}
