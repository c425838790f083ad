package ddbstore

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Key encoding for BadgerDB that preserves the (hash, sort) ordering.
// Key format: [keyspace][escaped hash][separator][sort]
//
// The hash is escaped so the separator byte (0x00) never appears inside it,
// which keeps a shorter hash ordered before any hash it is a prefix of.
// The sort component is the last one and is written raw so that a sort key
// prefix is also a byte prefix of the encoded key.

const keySeparator byte = 0x00

func encodeKey(space keyspace, k tupleKey) []byte {
	buf := encodeHashPrefix(space, k.hash)
	return append(buf, k.sort...)
}

// encodeHashPrefix returns the prefix shared by every key with the given hash.
func encodeHashPrefix(space keyspace, hash string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(space))
	buf.Write(escapeBytes([]byte(hash)))
	buf.WriteByte(keySeparator)
	return buf.Bytes()
}

// escapeBytes escapes null bytes (0x00) in the input to preserve separator integrity.
// Uses 0x01 0x01 for literal 0x00, and 0x01 0x02 for literal 0x01.
func escapeBytes(b []byte) []byte {
	var buf bytes.Buffer
	for _, c := range b {
		switch c {
		case 0x00:
			buf.WriteByte(0x01)
			buf.WriteByte(0x01)
		case 0x01:
			buf.WriteByte(0x01)
			buf.WriteByte(0x02)
		default:
			buf.WriteByte(c)
		}
	}
	return buf.Bytes()
}

// valueKind tags which field of storedValue is set.
type valueKind uint8

const (
	kindS valueKind = iota + 1
	kindN
	kindB
	kindBOOL
	kindNULL
	kindSS
	kindNS
	kindBS
	kindM
	kindL
)

// storedValue is the gob form of an AttributeValue.
type storedValue struct {
	Kind      valueKind
	Str       string
	Bytes     []byte
	Bool      bool
	Strs      []string
	BytesList [][]byte
	Map       map[string]storedValue
	List      []storedValue
}

// serializeRecord encodes a record for storage as a BadgerDB value.
func serializeRecord(rec table.Record) ([]byte, error) {
	stored, err := storeMap(rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func deserializeRecord(data []byte) (table.Record, error) {
	var stored map[string]storedValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	m, err := loadMap(stored)
	if err != nil {
		return nil, err
	}
	return table.Record(m), nil
}

func storeMap(m map[string]types.AttributeValue) (map[string]storedValue, error) {
	out := make(map[string]storedValue, len(m))
	for name, av := range m {
		v, err := storeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func loadMap(m map[string]storedValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for name, v := range m {
		av, err := loadValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = av
	}
	return out, nil
}

func storeValue(av types.AttributeValue) (storedValue, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return storedValue{Kind: kindS, Str: v.Value}, nil
	case *types.AttributeValueMemberN:
		return storedValue{Kind: kindN, Str: v.Value}, nil
	case *types.AttributeValueMemberB:
		return storedValue{Kind: kindB, Bytes: v.Value}, nil
	case *types.AttributeValueMemberBOOL:
		return storedValue{Kind: kindBOOL, Bool: v.Value}, nil
	case *types.AttributeValueMemberNULL:
		return storedValue{Kind: kindNULL, Bool: v.Value}, nil
	case *types.AttributeValueMemberSS:
		return storedValue{Kind: kindSS, Strs: v.Value}, nil
	case *types.AttributeValueMemberNS:
		return storedValue{Kind: kindNS, Strs: v.Value}, nil
	case *types.AttributeValueMemberBS:
		return storedValue{Kind: kindBS, BytesList: v.Value}, nil
	case *types.AttributeValueMemberM:
		m, err := storeMap(v.Value)
		if err != nil {
			return storedValue{}, err
		}
		return storedValue{Kind: kindM, Map: m}, nil
	case *types.AttributeValueMemberL:
		l := make([]storedValue, len(v.Value))
		for i, elem := range v.Value {
			sv, err := storeValue(elem)
			if err != nil {
				return storedValue{}, fmt.Errorf("element %d: %w", i, err)
			}
			l[i] = sv
		}
		return storedValue{Kind: kindL, List: l}, nil
	default:
		return storedValue{}, fmt.Errorf("unsupported attribute value type %T", av)
	}
}

func loadValue(v storedValue) (types.AttributeValue, error) {
	switch v.Kind {
	case kindS:
		return &types.AttributeValueMemberS{Value: v.Str}, nil
	case kindN:
		return &types.AttributeValueMemberN{Value: v.Str}, nil
	case kindB:
		return &types.AttributeValueMemberB{Value: v.Bytes}, nil
	case kindBOOL:
		return &types.AttributeValueMemberBOOL{Value: v.Bool}, nil
	case kindNULL:
		return &types.AttributeValueMemberNULL{Value: v.Bool}, nil
	case kindSS:
		return &types.AttributeValueMemberSS{Value: v.Strs}, nil
	case kindNS:
		return &types.AttributeValueMemberNS{Value: v.Strs}, nil
	case kindBS:
		return &types.AttributeValueMemberBS{Value: v.BytesList}, nil
	case kindM:
		m, err := loadMap(v.Map)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case kindL:
		l := make([]types.AttributeValue, len(v.List))
		for i, elem := range v.List {
			av, err := loadValue(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("unknown stored value kind %d", v.Kind)
	}
}
