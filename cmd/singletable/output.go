package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/acksell/singletable/dynamodb/table"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type itemsOutput struct {
	Items []map[string]any `json:"items"`
	Count int32            `json:"count"`
}

func printItems(w io.Writer, items []table.Record, count int32) error {
	out := itemsOutput{Items: make([]map[string]any, 0, len(items)), Count: count}
	for _, item := range items {
		var m map[string]any
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return fmt.Errorf("decode item: %w", err)
		}
		out.Items = append(out.Items, m)
	}
	return printJSON(w, out)
}
