package ddbstore

import (
	"bytes"
	"testing"

	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeKey_Ordering(t *testing.T) {
	keys := []tupleKey{
		{hash: "a", sort: "z"},
		{hash: "a\x00", sort: "a"},
		{hash: "a\x01", sort: "a"},
		{hash: "ab", sort: ""},
		{hash: "ab", sort: "a"},
		{hash: "ab", sort: "ab"},
		{hash: "b", sort: "a"},
	}
	for i := 1; i < len(keys); i++ {
		prev, cur := keys[i-1], keys[i]
		require.True(t, prev.less(cur), "%v < %v", prev, cur)
		assert.Negative(t, bytes.Compare(encodeKey(tableSpace, prev), encodeKey(tableSpace, cur)),
			"encoded %v must sort before %v", prev, cur)
	}
}

func TestEncodeHashPrefix(t *testing.T) {
	prefix := encodeHashPrefix(indexSpace, "model")
	assert.True(t, bytes.HasPrefix(encodeKey(indexSpace, tupleKey{hash: "model", sort: "model#foo"}), prefix))
	assert.False(t, bytes.HasPrefix(encodeKey(indexSpace, tupleKey{hash: "models", sort: "x"}), prefix))
	assert.False(t, bytes.HasPrefix(encodeKey(tableSpace, tupleKey{hash: "model", sort: "x"}), prefix))
}

func TestSerializeRecord(t *testing.T) {
	rec := table.Record{
		"pk":      table.S("model#foo"),
		"sk":      table.S("model#foo"),
		"value":   &types.AttributeValueMemberN{Value: "42"},
		"active":  &types.AttributeValueMemberBOOL{Value: true},
		"tags":    &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
		"payload": &types.AttributeValueMemberB{Value: []byte{1, 2, 3}},
		"nested": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"list": &types.AttributeValueMemberL{Value: []types.AttributeValue{table.S("x")}},
		}},
	}

	data, err := serializeRecord(rec)
	require.NoError(t, err)
	got, err := deserializeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSerializeRecord_Errors(t *testing.T) {
	_, err := serializeRecord(table.Record{"pk": nil})
	assert.ErrorContains(t, err, `attribute "pk"`)

	_, err = deserializeRecord([]byte("not gob"))
	assert.Error(t, err)

	_, err = loadValue(storedValue{})
	assert.ErrorContains(t, err, "unknown stored value kind")
}
