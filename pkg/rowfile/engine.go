package rowfile

import (
	"bytes"
	"fmt"

	"rowdb/pkg/codec"
	"rowdb/pkg/schema"
)

// Fields is the dynamic "row as a mapping from column name to value"
// described in spec.md §9: string columns hold Go strings, every integer
// column (regardless of width or signedness) holds an int64.
type Fields map[string]any

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Engine combines the index cache/scanner (spec.md §4.4) and the row
// cache/dirty manager (spec.md §4.5) over a single [File]. It performs no
// locking of its own: pkg/table serializes all access to an Engine through
// its global file lock.
type Engine struct {
	file   *File
	schema *schema.Schema

	idx  *lru // encoded key bytes (as string) -> row index (int64)
	rows *lru // encoded key bytes (as string) -> Fields snapshot
}

// NewEngine wires an Engine over file. indexCacheCap/rowCacheCap are the
// indexCache/indexData options from spec.md §6; 0 disables the
// corresponding cache without affecting correctness.
func NewEngine(file *File, sch *schema.Schema, indexCacheCap, rowCacheCap int) *Engine {
	e := &Engine{file: file, schema: sch}
	e.idx = newLRU(indexCacheCap, nil)
	e.rows = newLRU(rowCacheCap, func(key string, value any) error {
		return e.save([]byte(key), value.(Fields))
	})
	return e
}

// Load resolves key to its current field values. If the row cache holds
// key, a copy of that snapshot is returned (the entry moves to front); otherwise
// find() is consulted and, on a hit, the row is read and decoded and
// inserted into the row cache. On a miss, a fresh snapshot of column
// defaults is returned with exists=false, per spec.md §4.5 load() step 2.
func (e *Engine) Load(keyBuf []byte) (Fields, bool, error) {
	rowKey := string(keyBuf)

	if v, ok := e.rows.Get(rowKey); ok {
		return cloneFields(v.(Fields)), true, nil
	}

	idx, found, err := e.find(keyBuf, false)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return e.defaultFields(keyBuf), false, nil
	}

	buf := make([]byte, e.schema.RowLength)
	if err := e.file.ReadRow(idx, buf); err != nil {
		return nil, false, err
	}

	fields := e.decodeRow(buf)
	if err := e.rows.Set(rowKey, cloneFields(fields)); err != nil {
		return nil, false, fmt.Errorf("rowfile: flush evicted row during load: %w", err)
	}
	return fields, true, nil
}

// Write inserts or replaces key's row-cache entry at the front. On
// overflow, the evicted tail entry is flushed to disk via save(), per
// spec.md §4.5 write(). It does not itself touch the file for key.
func (e *Engine) Write(keyBuf []byte, fields Fields) error {
	rowKey := string(keyBuf)
	if err := e.rows.Set(rowKey, cloneFields(fields)); err != nil {
		return fmt.Errorf("rowfile: flush evicted row during write: %w", err)
	}
	return nil
}

// Remove drops any row-cache and index-cache entries for key, then
// performs swap-with-last compaction on disk (spec.md §4.5 remove()). It
// is a no-op if key does not exist.
func (e *Engine) Remove(keyBuf []byte) error {
	rowKey := string(keyBuf)
	e.rows.Delete(rowKey)
	e.idx.Delete(rowKey)

	idx, found, err := e.find(keyBuf, false)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	rowCount := e.file.RowCount()
	if rowCount == 1 {
		if err := e.file.SetRowCount(0); err != nil {
			return err
		}
		return e.file.Truncate(e.schema.DataOffset)
	}

	lastIdx := rowCount - 1
	if idx != lastIdx {
		lastRow := make([]byte, e.schema.RowLength)
		if err := e.file.ReadRow(lastIdx, lastRow); err != nil {
			return err
		}
		// The row at lastIdx is about to move to idx; any index cache entry
		// still mapping its key to lastIdx would now point past the
		// post-truncate end of the file, so it must go before the swap
		// (spec.md §4.5/§9: "clear from the index cache any entry mapping
		// to the moved row").
		e.idx.Delete(string(lastRow[:e.schema.KeyWidth]))
		if err := e.file.WriteRow(idx, lastRow); err != nil {
			return err
		}
	}

	newCount := lastIdx
	if err := e.file.Truncate(e.file.RowOffset(newCount)); err != nil {
		return err
	}
	return e.file.SetRowCount(newCount)
}

// Flush writes back every row cache entry, per spec.md §3 Lifecycle
// ("on close, every row cache entry is flushed").
func (e *Engine) Flush() error {
	return e.rows.Flush()
}

// find resolves key to a row index per spec.md §4.4: index cache, then a
// linear scan of the key column, then (if create) a fresh append.
func (e *Engine) find(keyBuf []byte, create bool) (idx int64, ok bool, err error) {
	rowKey := string(keyBuf)

	if v, hit := e.idx.Get(rowKey); hit {
		return v.(int64), true, nil
	}

	scratch := make([]byte, e.schema.KeyWidth)
	rowCount := e.file.RowCount()
	for i := int64(0); i < rowCount; i++ {
		if err := e.file.ReadKey(i, scratch); err != nil {
			return 0, false, err
		}
		if bytes.Equal(scratch, keyBuf) {
			if err := e.idx.Set(rowKey, i); err != nil {
				return 0, false, fmt.Errorf("rowfile: index cache eviction: %w", err)
			}
			return i, true, nil
		}
	}

	if !create {
		return 0, false, nil
	}

	newIdx, err := e.file.AppendRow()
	if err != nil {
		return 0, false, err
	}
	if err := e.idx.Set(rowKey, newIdx); err != nil {
		return 0, false, fmt.Errorf("rowfile: index cache eviction: %w", err)
	}
	return newIdx, true, nil
}

// save builds a full row buffer from fields (substituting column defaults
// for any absent non-key column, per spec.md §4.5 save()), allocates a row
// index if key is new, and writes the row at that index.
func (e *Engine) save(keyBuf []byte, fields Fields) error {
	buf := make([]byte, e.schema.RowLength)
	copy(buf[:e.schema.KeyWidth], keyBuf)

	for _, col := range e.schema.NonKey() {
		v, ok := fields[col.Name]
		if !ok {
			v = col.Default
		}
		if err := codec.Write(buf, col.Type, v, col.Offset); err != nil {
			return fmt.Errorf("rowfile: encode column %q: %w", col.Name, err)
		}
	}

	idx, _, err := e.find(keyBuf, true)
	if err != nil {
		return err
	}
	return e.file.WriteRow(idx, buf)
}

func (e *Engine) decodeRow(buf []byte) Fields {
	fields := make(Fields, len(e.schema.Columns))
	for _, col := range e.schema.Columns {
		v, err := codec.Read(buf, col.Type, col.Offset)
		if err != nil {
			// Column offsets and widths come from the schema that produced
			// this row's layout; a decode failure here means the file is
			// corrupt in a way the preamble check cannot catch.
			v = col.Default
		}
		fields[col.Name] = v
	}
	return fields
}

func (e *Engine) defaultFields(keyBuf []byte) Fields {
	fields := make(Fields, len(e.schema.Columns))
	keyVal, err := codec.Read(padKey(keyBuf, e.schema.KeyWidth), e.schema.Key().Type, 0)
	if err != nil {
		keyVal = e.schema.Key().Default
	}
	fields[e.schema.Key().Name] = keyVal
	for _, col := range e.schema.NonKey() {
		fields[col.Name] = col.Default
	}
	return fields
}

func padKey(keyBuf []byte, width int) []byte {
	if len(keyBuf) >= width {
		return keyBuf
	}
	out := make([]byte, width)
	copy(out, keyBuf)
	return out
}
