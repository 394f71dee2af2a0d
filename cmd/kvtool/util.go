package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"rowdb/pkg/table"
)

// parseScalar converts a command-line string into the Go value type
// codec.Validate/Write expect for colType: string columns pass through
// unchanged, every integer column parses as a base-10 int64.
func parseScalar(raw, colType string) (any, error) {
	if colType == "" || colType == "string" {
		return raw, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("value %q is not a valid %s: %w", raw, colType, err)
	}
	return n, nil
}

// columnType returns the declared type of name within opts.Values,
// defaulting to "string" as spec.md §3 does for an omitted type tag.
func columnType(opts table.Options, name string) string {
	for _, c := range opts.Values {
		if c.Name == name {
			if c.Type == "" {
				return "string"
			}
			return c.Type
		}
	}
	return "string"
}

// parseAssignment splits a "col=value" argument into its column name and
// raw value, parsed according to that column's declared type.
func parseAssignment(opts table.Options, arg string) (string, any, error) {
	name, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return "", nil, fmt.Errorf("expected col=value, got %q", arg)
	}
	v, err := parseScalar(raw, columnType(opts, name))
	if err != nil {
		return "", nil, err
	}
	return name, v, nil
}

// formatFields renders a row snapshot as sorted "name=value" lines.
func formatFields(fields table.Fields) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s=%v", name, fields[name])
	}
	return b.String()
}
