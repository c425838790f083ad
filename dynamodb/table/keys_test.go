package table

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPrimaryKey(t *testing.T) {
	t.Run("reads pk and sk", func(t *testing.T) {
		rec := Record{
			"pk":    S("model#foo"),
			"sk":    S("model#foo#submodel#bar"),
			"model": S("submodel"),
		}
		key, err := ExtractPrimaryKey(rec)
		require.NoError(t, err)
		assert.Equal(t, PrimaryKey{PK: "model#foo", SK: "model#foo#submodel#bar"}, key)
	})

	t.Run("missing sort key", func(t *testing.T) {
		_, err := ExtractPrimaryKey(Record{"pk": S("a")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidRecord))
	})

	t.Run("empty partition key", func(t *testing.T) {
		_, err := ExtractPrimaryKey(Record{"pk": S(""), "sk": S("a")})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("non string key", func(t *testing.T) {
		_, err := ExtractPrimaryKey(Record{
			"pk": &types.AttributeValueMemberN{Value: "1"},
			"sk": S("a"),
		})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("nil record", func(t *testing.T) {
		_, err := ExtractPrimaryKey(nil)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})
}

func TestExtractIndexKey(t *testing.T) {
	t.Run("uses model and sk", func(t *testing.T) {
		key := ExtractIndexKey(Record{"pk": S("p"), "sk": S("s"), "model": S("model")})
		assert.Equal(t, IndexKey{Model: "model", SK: "s"}, key)
	})
	t.Run("missing model maps to empty partition", func(t *testing.T) {
		key := ExtractIndexKey(Record{"pk": S("p"), "sk": S("s")})
		assert.Equal(t, IndexKey{Model: "", SK: "s"}, key)
	})
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("model#foo#submodel#bar", "model#foo#submodel#"))
	assert.True(t, HasPrefix("anything", ""))
	assert.False(t, HasPrefix("model#foo", "model#foo#"))
}

func TestRecordClone(t *testing.T) {
	orig := Record{"pk": S("a"), "sk": S("b")}
	clone := orig.Clone()
	clone["extra"] = S("c")
	assert.NotContains(t, orig, "extra")
	assert.Nil(t, Record(nil).Clone())
}
