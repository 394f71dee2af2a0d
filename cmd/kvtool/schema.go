package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"rowdb/pkg/table"
)

// columnDoc is one column declaration as it appears in a schema.hujson
// file, mirroring table.ColumnSpec.
type columnDoc struct {
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Default   any    `json:"default,omitempty"`
}

// schemaDoc is the whole schema.hujson document, mirroring table.Options.
type schemaDoc struct {
	Key        string      `json:"key"`
	Values     []columnDoc `json:"values"`
	IndexCache *int        `json:"indexCache,omitempty"`
	IndexData  *int        `json:"indexData,omitempty"`
}

// loadSchema reads a HuJSON schema file (comments and trailing commas
// allowed, per spec.md §6.1) and converts it into table.Options.
func loadSchema(path string) (table.Options, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return table.Options{}, fmt.Errorf("read schema %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(raw)
	if err != nil {
		return table.Options{}, fmt.Errorf("parse schema %q: %w", path, err)
	}

	var doc schemaDoc
	if err := json.Unmarshal(standardized, &doc); err != nil {
		return table.Options{}, fmt.Errorf("decode schema %q: %w", path, err)
	}

	values := make([]table.ColumnSpec, 0, len(doc.Values))
	for _, c := range doc.Values {
		values = append(values, table.ColumnSpec{
			Name:      c.Name,
			Type:      c.Type,
			MaxLength: c.MaxLength,
			Default:   normalizeJSONValue(c.Default, c.Type),
		})
	}

	return table.Options{
		Key:        doc.Key,
		Values:     values,
		IndexCache: doc.IndexCache,
		IndexData:  doc.IndexData,
	}, nil
}

// normalizeJSONValue converts the float64 encoding/json produces for a
// bare JSON number into an int64 for every non-string column type, since
// codec.Validate/Write expect a concrete Go integer kind, not a float.
func normalizeJSONValue(v any, colType string) any {
	if v == nil {
		return nil
	}
	if colType == "" || colType == "string" {
		return v
	}
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	return v
}
