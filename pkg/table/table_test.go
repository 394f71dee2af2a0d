package table_test

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"rowdb/pkg/table"
)

func intPtr(n int) *int { return &n }

func bankOptions() table.Options {
	return table.Options{
		Key: "userId",
		Values: []table.ColumnSpec{
			{Name: "userId", MaxLength: intPtr(10)},
			{Name: "money", Type: "int32", Default: int64(0)},
		},
	}
}

func mustOpen(t *testing.T, path string, opts table.Options) *table.Table {
	t.Helper()
	tbl, err := table.Open(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })
	return tbl
}

func submitAndWait(t *testing.T, tx table.Txn, body table.Body) (any, error) {
	t.Helper()
	return tx.Submit(body).Wait()
}

// Scenario 1: create then read back.
func TestScenarioCreateThenReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.tbl")

	tbl := mustOpen(t, path, bankOptions())
	tx, err := tbl.At("bank")
	require.NoError(t, err)
	_, err = submitAndWait(t, tx, func(row table.Fields, h *table.Handle) (any, error) {
		h.Confirm()
		row["money"] = int64(10000000)
		return nil, nil
	})
	require.NoError(t, err)
	require.NoError(t, tbl.Close())

	tbl2 := mustOpen(t, path, bankOptions())
	require.Equal(t, 1, tbl2.Size())

	tx2, err := tbl2.At("bank")
	require.NoError(t, err)
	money, err := submitAndWait(t, tx2, func(row table.Fields, h *table.Handle) (any, error) {
		return row["money"], nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(10000000), money)
}

// Scenario 2: transfer between two keys.
func TestScenarioTransfer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.tbl")
	tbl := mustOpen(t, path, bankOptions())

	bankTx, err := tbl.At("bank")
	require.NoError(t, err)
	_, err = submitAndWait(t, bankTx, func(row table.Fields, h *table.Handle) (any, error) {
		h.Confirm()
		row["money"] = int64(10000000)
		return nil, nil
	})
	require.NoError(t, err)

	aliceTx, err := tbl.At("alice")
	require.NoError(t, err)
	_, err = submitAndWait(t, aliceTx, func(row table.Fields, h *table.Handle) (any, error) {
		h.Confirm()
		row["money"] = int64(100)
		return nil, nil
	})
	require.NoError(t, err)

	bankTx2, err := tbl.At("bank")
	require.NoError(t, err)
	_, err = submitAndWait(t, bankTx2, func(row table.Fields, h *table.Handle) (any, error) {
		row["money"] = row["money"].(int64) - 100
		return nil, nil
	})
	require.NoError(t, err)

	aliceTx2, err := tbl.At("alice")
	require.NoError(t, err)
	_, err = submitAndWait(t, aliceTx2, func(row table.Fields, h *table.Handle) (any, error) {
		row["money"] = row["money"].(int64) + 100
		return nil, nil
	})
	require.NoError(t, err)

	bankTx3, _ := tbl.At("bank")
	bankMoney, err := submitAndWait(t, bankTx3, func(row table.Fields, h *table.Handle) (any, error) {
		return row["money"], nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(9999900), bankMoney)

	aliceTx3, _ := tbl.At("alice")
	aliceMoney, err := submitAndWait(t, aliceTx3, func(row table.Fields, h *table.Handle) (any, error) {
		return row["money"], nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(200), aliceMoney)
}

// Scenario 3: remove compaction.
func TestScenarioRemoveCompaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letters.tbl")
	tbl := mustOpen(t, path, table.Options{
		Key: "k",
		Values: []table.ColumnSpec{
			{Name: "k", MaxLength: intPtr(4)},
			{Name: "v", Type: "uint16", Default: int64(0)},
		},
	})

	for i, k := range []string{"a", "b", "c"} {
		tx, err := tbl.At(k)
		require.NoError(t, err)
		idx := i
		_, err = submitAndWait(t, tx, func(row table.Fields, h *table.Handle) (any, error) {
			h.Confirm()
			row["v"] = int64(idx + 1)
			return nil, nil
		})
		require.NoError(t, err)
	}

	bTx, err := tbl.At("b")
	require.NoError(t, err)
	_, err = submitAndWait(t, bTx, func(row table.Fields, h *table.Handle) (any, error) {
		h.Remove()
		return nil, nil
	})
	require.NoError(t, err)

	require.Equal(t, 2, tbl.Size())

	aTx, _ := tbl.At("a")
	aVal, err := submitAndWait(t, aTx, func(row table.Fields, h *table.Handle) (any, error) {
		return row["v"], nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), aVal)

	cTx, _ := tbl.At("c")
	cVal, err := submitAndWait(t, cTx, func(row table.Fields, h *table.Handle) (any, error) {
		return row["v"], nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), cVal)

	bTx2, _ := tbl.At("b")
	bExists, err := submitAndWait(t, bTx2, func(row table.Fields, h *table.Handle) (any, error) {
		return h.Exists(), nil
	})
	require.NoError(t, err)
	require.Equal(t, false, bExists)
}

// Scenario 4: schema mismatch on reopen.
func TestScenarioSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")

	tbl := mustOpen(t, path, table.Options{
		Key: "k",
		Values: []table.ColumnSpec{
			{Name: "k", MaxLength: intPtr(4)},
			{Name: "v", Type: "uint16", Default: int64(0)},
		},
	})
	require.NoError(t, tbl.Close())

	_, err := table.Open(path, table.Options{
		Key: "k",
		Values: []table.ColumnSpec{
			{Name: "k", MaxLength: intPtr(4)},
			{Name: "v", Type: "uint32", Default: int64(0)},
		},
	})
	require.Error(t, err)
}

// Scenario 6: concurrent increments on one key.
func TestScenarioConcurrentIncrements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.tbl")
	tbl := mustOpen(t, path, table.Options{
		Key: "name",
		Values: []table.ColumnSpec{
			{Name: "name", MaxLength: intPtr(16)},
			{Name: "n", Type: "uint32", Default: int64(0)},
		},
	})

	tx, err := tbl.At("counter")
	require.NoError(t, err)
	_, err = submitAndWait(t, tx, func(row table.Fields, h *table.Handle) (any, error) {
		h.Confirm()
		return nil, nil
	})
	require.NoError(t, err)

	var futures []*table.Future
	for i := 0; i < 100; i++ {
		tx, err := tbl.At("counter")
		require.NoError(t, err)
		futures = append(futures, tx.Submit(func(row table.Fields, h *table.Handle) (any, error) {
			row["n"] = row["n"].(int64) + 1
			return nil, nil
		}))
	}

	for _, f := range futures {
		_, err := f.Wait()
		require.NoError(t, err)
	}

	tx2, _ := tbl.At("counter")
	n, err := submitAndWait(t, tx2, func(row table.Fields, h *table.Handle) (any, error) {
		return row["n"], nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), n)
}

func TestBodyReadOnlyCausesNoWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	tbl := mustOpen(t, path, bankOptions())

	tx, err := tbl.At("ghost")
	require.NoError(t, err)
	_, err = submitAndWait(t, tx, func(row table.Fields, h *table.Handle) (any, error) {
		_ = row["money"]
		return nil, nil
	})
	require.NoError(t, err)
	require.Equal(t, 0, tbl.Size())
}

func TestBodyPanicIsRecoveredAsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	tbl := mustOpen(t, path, bankOptions())

	tx, err := tbl.At("bank")
	require.NoError(t, err)
	_, err = submitAndWait(t, tx, func(row table.Fields, h *table.Handle) (any, error) {
		panic("boom")
	})
	require.ErrorIs(t, err, table.ErrBodyPanic)
}

func TestConcurrentKeysRunInParallel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.tbl")
	tbl := mustOpen(t, path, bankOptions())

	var wg sync.WaitGroup
	for _, k := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			tx, err := tbl.At(key)
			require.NoError(t, err)
			_, err = submitAndWait(t, tx, func(row table.Fields, h *table.Handle) (any, error) {
				h.Confirm()
				row["money"] = int64(1)
				return nil, nil
			})
			require.NoError(t, err)
		}(k)
	}
	wg.Wait()

	require.Equal(t, 4, tbl.Size())
}
