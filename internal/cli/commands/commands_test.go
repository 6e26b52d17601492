package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapalg/internal/cli/config"
	"github.com/leapstack-labs/leapalg/internal/cli/output"
	"github.com/leapstack-labs/leapalg/internal/testutil"
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

const ordersPipeline = `- op: Table
  name: orders
  columns: [id, amount]
- op: SelectRows
  expr: amount > 10
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testContext(t *testing.T, cfg *config.Config, mode output.Mode) (*CommandContext, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	if cfg.Target == nil {
		cfg.Target = &config.TargetConfig{Type: "sqlite", Database: ":memory:"}
	}
	return &CommandContext{
		Cfg:      cfg,
		Logger:   testutil.NewTestLogger(t),
		Renderer: output.NewRenderer(buf, buf, mode),
	}, buf
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewCompileCommand(), use: "compile <pipeline>...", flags: []string{"all", "watch"}},
		{cmd: NewDescribeCommand(), use: "describe <pipeline>"},
		{cmd: NewRunCommand(), use: "run <pipeline>", flags: []string{"load", "check", "show-sql"}},
		{cmd: NewEvalCommand(), use: "eval <pipeline>", flags: []string{"input"}},
		{cmd: NewSeedCommand(), use: "seed <csv>...", flags: []string{"table"}},
		{cmd: NewDialectsCommand(), use: "dialects"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, f := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(f), "flag %q should exist", f)
			}
		})
	}
}

func TestSeedTableName(t *testing.T) {
	assert.Equal(t, "orders", seedTableName("data/orders.csv"))
	assert.Equal(t, "raw.orders", seedTableName("raw.orders.csv"))
	assert.Equal(t, "plain", seedTableName("plain"))
	assert.Equal(t, "1 row", seedRows(1))
	assert.Equal(t, "rows unknown", seedRows(-1))
	assert.Equal(t, "3 rows", seedRows(3))
}

func TestCompileFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders.yaml", ordersPipeline)

	t.Run("configured dialect", func(t *testing.T) {
		cc, _ := testContext(t, &config.Config{Dialect: "postgres", Mode: "nested"}, output.ModeJSON)
		results, err := cc.compileFiles(context.Background(), []string{path}, false)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "postgres", results[0].Dialect)
		assert.Equal(t, "nested", results[0].Mode)
		assert.Contains(t, results[0].SQL, `FROM "orders"`)
		assert.Contains(t, results[0].SQL, `"amount" > 10`)
		assert.Empty(t, results[0].Error)
	})

	t.Run("every dialect", func(t *testing.T) {
		cc, _ := testContext(t, &config.Config{}, output.ModeJSON)
		results, err := cc.compileFiles(context.Background(), []string{path, path}, true)
		require.NoError(t, err)
		names := dialect.List()
		require.Len(t, results, 2*len(names))
		for i, q := range results {
			assert.Equal(t, names[i%len(names)], q.Dialect)
			assert.NotEmpty(t, q.SQL, q.Dialect)
		}
	})

	t.Run("unknown dialect", func(t *testing.T) {
		cc, _ := testContext(t, &config.Config{Dialect: "cobol"}, output.ModeJSON)
		_, err := cc.compileFiles(context.Background(), []string{path}, false)
		assert.ErrorIs(t, err, dialect.ErrUnknownDialect)
	})

	t.Run("missing file", func(t *testing.T) {
		cc, _ := testContext(t, &config.Config{}, output.ModeJSON)
		_, err := cc.compileFiles(context.Background(), []string{filepath.Join(dir, "nope.yaml")}, false)
		assert.Error(t, err)
	})
}

func TestRenderCompiled(t *testing.T) {
	results := []CompiledQuery{
		{File: "a.yaml", Dialect: "ansi", Mode: "nested", SQL: "SELECT 1"},
		{File: "a.yaml", Dialect: "sqlite", Error: "unsupported operator"},
	}

	t.Run("json", func(t *testing.T) {
		cc, buf := testContext(t, &config.Config{}, output.ModeJSON)
		err := renderCompiled(cc.Renderer, results, true)
		assert.ErrorIs(t, err, errCompileFailed)
		var got []CompiledQuery
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, results, got)
	})

	t.Run("markdown", func(t *testing.T) {
		cc, buf := testContext(t, &config.Config{}, output.ModeMarkdown)
		require.NoError(t, renderCompiled(cc.Renderer, results[:1], false))
		assert.Equal(t, "```sql\nSELECT 1\n```\n", buf.String())
	})

	t.Run("text", func(t *testing.T) {
		cc, buf := testContext(t, &config.Config{}, output.ModeText)
		err := renderCompiled(cc.Renderer, results, true)
		assert.ErrorIs(t, err, errCompileFailed)
		assert.Contains(t, buf.String(), "a.yaml (ansi)")
		assert.Contains(t, buf.String(), "SELECT 1")
		assert.Contains(t, buf.String(), "sqlite: unsupported operator")
	})
}

func TestDescribePipeline(t *testing.T) {
	root := ops.DescribeQualified("orders", map[string]string{"schema": "shop"}, "id", "amount").
		Rename(map[string]string{"total": "amount"}).
		NaturalJoin(ops.DescribeTemp("flags", "id", "flag"), []string{"id"}, core.JoinInner).
		Must()

	out, err := describePipeline("p.yaml", root)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "total", "flag"}, out.Columns)
	assert.Equal(t, ops.Format(root), out.Plan)
	assert.Equal(t, 4, out.Steps)
	assert.Equal(t, []LeafInfo{
		{Key: "flags", Kind: "Table", Columns: []string{"id", "flag"}, Temporary: true, Forbidden: []string{}},
		{Key: "{(schema, shop)}.orders", Kind: "Table", Columns: []string{"id", "amount"}, Forbidden: []string{"total"}},
	}, out.Inputs)
}

func TestReadInputs(t *testing.T) {
	dir := t.TempDir()
	orders := writeFile(t, dir, "orders.csv", "id,amount\n1,5\n")
	labels := writeFile(t, dir, "labels.csv", "id,label\n1,x\n")

	root := ops.DescribeQualified("orders", map[string]string{"schema": "shop"}, "id", "amount").
		NaturalJoin(ops.Describe("labels", "id", "label"), []string{"id"}, core.JoinLeft).
		Must()

	data, err := readInputs(root, map[string]string{"orders": orders, "labels": labels})
	require.NoError(t, err)
	require.Contains(t, data, "{(schema, shop)}.orders")
	require.Contains(t, data, "labels")
	assert.Equal(t, []string{"id", "label"}, data["labels"].Columns)

	_, err = readInputs(root, map[string]string{"customers": orders})
	assert.ErrorContains(t, err, `input "customers" matches no table`)

	_, err = readInputs(root, map[string]string{"orders": orders, "{(schema, shop)}.orders": orders})
	assert.ErrorContains(t, err, "given twice")

	_, err = readInputs(root, map[string]string{"labels": filepath.Join(dir, "missing.csv")})
	assert.ErrorContains(t, err, "input labels")
}

func TestWatchLoop(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "orders.yaml", ordersPipeline)
	other := writeFile(t, dir, "other.yaml", ordersPipeline)

	w, tracked, err := newPipelineWatcher([]string{path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan string, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchLoop(ctx, w, tracked, testutil.NewTestLogger(t), func(p string) { changed <- p })
	}()

	require.NoError(t, os.WriteFile(other, []byte(ordersPipeline+"\n"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(ordersPipeline+"\n"), 0o600))

	select {
	case got := <-changed:
		assert.Equal(t, path, got, "untracked files are ignored")
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}
