package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapalg/pkg/adapter"
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

func connect(t *testing.T) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Connect(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "test.db")
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: path}))
	_, err := adp.Execute(ctx, "CREATE TABLE t (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, adp.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	_, err := adp.Execute(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	_, err = adp.ReadQuery(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	_, err = adp.GetTableMetadata(ctx, "t")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.ErrorIs(t, adp.InsertTable(ctx, "t", frame.MustNew([]string{"x"}), adapter.InsertOptions{}), adapter.ErrNotConnected)
}

func TestAdapter_InsertAndRead(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	data := frame.MustNew([]string{"id", "name", "score"},
		[]any{int64(1), "alice", 1.5},
		[]any{int64(2), "bob", nil},
	)
	require.NoError(t, adp.InsertTable(ctx, "people", data, adapter.InsertOptions{}))

	got, err := adp.ReadQuery(ctx, `SELECT id, name, score FROM people ORDER BY id`)
	require.NoError(t, err)
	assert.NoError(t, frame.Equivalent(data, got, frame.CompareOptions{}))

	err = adp.InsertTable(ctx, "people", data, adapter.InsertOptions{})
	assert.ErrorContains(t, err, "already exists")

	smaller := frame.MustNew([]string{"id"}, []any{int64(9)})
	require.NoError(t, adp.InsertTable(ctx, "people", smaller, adapter.InsertOptions{AllowOverwrite: true}))
	got, err = adp.ReadQuery(ctx, "SELECT * FROM people")
	require.NoError(t, err)
	assert.NoError(t, frame.Equivalent(smaller, got, frame.DefaultCompare))

	n, err := adp.Execute(ctx, "DELETE FROM people")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAdapter_TempTable(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	root := ops.DescribeTemp("scratch", "x").ExtendText("y", "x * 10").Must()
	_, err := adapter.ReadPipeline(ctx, adp, root, sqlgen.Options{})
	require.Error(t, err)

	require.NoError(t, adp.InsertTable(ctx, "scratch", frame.MustNew([]string{"x"}, []any{int64(2)}),
		adapter.InsertOptions{Temporary: true}))
	got, err := adapter.ReadPipeline(ctx, adp, root, sqlgen.Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{int64(2), int64(20)}}, got.Rows)
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)
	_, err := adp.Execute(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL, note TEXT)")
	require.NoError(t, err)
	_, err = adp.Execute(ctx, "INSERT INTO t VALUES (1, 'a', NULL), (2, 'b', 'x')")
	require.NoError(t, err)

	meta, err := adp.GetTableMetadata(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "main", meta.Schema)
	assert.Equal(t, []string{"id", "name", "note"}, meta.ColumnNames())
	assert.True(t, meta.Columns[0].PrimaryKey)
	assert.False(t, meta.Columns[1].Nullable)
	assert.True(t, meta.Columns[2].Nullable)
	assert.Equal(t, 1, meta.Columns[0].Position)
	assert.Equal(t, int64(2), meta.RowCount)

	_, err = adp.GetTableMetadata(ctx, "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestAdapter_LoadCSV(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,value\n1,alice,2.5\n2,bob,\n"), 0o600))
	require.NoError(t, adp.LoadCSV(ctx, "test_data", path))

	got, err := adp.ReadQuery(ctx, "SELECT id, name, value FROM test_data ORDER BY id")
	require.NoError(t, err)
	want := frame.MustNew([]string{"id", "name", "value"}, []any{int64(1), "alice", 2.5}, []any{int64(2), "bob", nil})
	assert.NoError(t, frame.Equivalent(want, got, frame.CompareOptions{}))
}

func TestAdapter_ReadPipeline(t *testing.T) {
	ctx := context.Background()
	adp := connect(t)

	require.NoError(t, adp.InsertTable(ctx, "sales", frame.MustNew([]string{"region", "amount"},
		[]any{"east", int64(10)},
		[]any{"east", int64(5)},
		[]any{"west", int64(7)},
	), adapter.InsertOptions{}))
	require.NoError(t, adp.InsertTable(ctx, "regions", frame.MustNew([]string{"region", "manager"},
		[]any{"east", "ann"},
		[]any{"west", "wu"},
	), adapter.InsertOptions{}))

	root := ops.Describe("sales", "region", "amount").
		ExtendWindowText(ops.Window{PartitionBy: []string{"region"}, OrderBy: []string{"amount"}}, "rank", "_row_number()").
		SelectRowsText("rank == 1").
		NaturalJoin(ops.Describe("regions", "region", "manager"), []string{"region"}, core.JoinLeft).
		OrderRows([]string{"region"}, nil, 0).
		Must()
	want := frame.MustNew([]string{"region", "amount", "rank", "manager"},
		[]any{"east", int64(5), int64(1), "ann"},
		[]any{"west", int64(7), int64(1), "wu"},
	)

	for _, mode := range []sqlgen.Mode{sqlgen.ModeNested, sqlgen.ModeCTE} {
		t.Run(string(mode), func(t *testing.T) {
			got, err := adapter.ReadPipeline(ctx, adp, root, sqlgen.Options{Mode: mode})
			require.NoError(t, err)
			assert.NoError(t, frame.Equivalent(want, got, frame.CompareOptions{}))
		})
	}
}
