// Package kvset implements the set façade from spec.md §1/§6: a thin
// single-column mapping onto [table.Table] that presents a persistent set
// of values instead of a keyed record store.
package kvset

import (
	"errors"
	"fmt"

	"rowdb/pkg/fs"
	"rowdb/pkg/table"
)

// valueColumn is both the table's key column and its only column, per
// spec.md §6 "mapped onto a single-column table whose column is named
// value and is also the key".
const valueColumn = "value"

var (
	// ErrMissingTypeOrMaxLength indicates neither Type nor MaxLength was
	// given, so the single stored column can't be resolved.
	ErrMissingTypeOrMaxLength = errors.New("kvset: Type or MaxLength is required")
)

// Options configures a set, per spec.md §6 "Configuration options for a
// set facade": at least one of Type or MaxLength is required for the
// single stored value. There is no Default option: the stored value is
// also the key column, and spec.md §3 forbids a default on the key
// column. IndexCache/IndexData are forwarded to the underlying table
// under those exact names — spec.md §9 resolves the source's
// cacheIndex/cacheData naming mismatch by treating the table's option
// names as authoritative.
type Options struct {
	Type      string
	MaxLength *int

	IndexCache *int
	IndexData  *int
	FS         fs.FS
}

// Set is a persistent set of values backed by a single-column table.
type Set struct {
	table *table.Table
}

// Open creates or opens the set file at path.
func Open(path string, opts Options) (*Set, error) {
	if opts.Type == "" && opts.MaxLength == nil {
		return nil, ErrMissingTypeOrMaxLength
	}

	tblOpts := table.Options{
		Key: valueColumn,
		Values: []table.ColumnSpec{
			{Name: valueColumn, Type: opts.Type, MaxLength: opts.MaxLength},
		},
		IndexCache: opts.IndexCache,
		IndexData:  opts.IndexData,
		FS:         opts.FS,
	}

	tbl, err := table.Open(path, tblOpts)
	if err != nil {
		return nil, err
	}
	return &Set{table: tbl}, nil
}

// Has reports whether value is a member of the set.
func (s *Set) Has(value any) (bool, error) {
	tx, err := s.table.At(value)
	if err != nil {
		return false, err
	}
	result, err := tx.Submit(func(_ table.Fields, h *table.Handle) (any, error) {
		return h.Exists(), nil
	}).Wait()
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Add inserts value into the set. It is a no-op if value is already a
// member.
func (s *Set) Add(value any) error {
	tx, err := s.table.At(value)
	if err != nil {
		return err
	}
	_, err = tx.Submit(func(_ table.Fields, h *table.Handle) (any, error) {
		h.Confirm()
		return nil, nil
	}).Wait()
	return err
}

// Remove deletes value from the set. It is a no-op if value is not a
// member.
func (s *Set) Remove(value any) error {
	tx, err := s.table.At(value)
	if err != nil {
		return err
	}
	_, err = tx.Submit(func(_ table.Fields, h *table.Handle) (any, error) {
		h.Remove()
		return nil, nil
	}).Wait()
	return err
}

// Size returns the number of members currently in the set.
func (s *Set) Size() int {
	return s.table.Size()
}

// Close flushes and releases the underlying table file.
func (s *Set) Close() error {
	if err := s.table.Close(); err != nil {
		return fmt.Errorf("kvset: close: %w", err)
	}
	return nil
}
