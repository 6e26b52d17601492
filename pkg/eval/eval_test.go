package eval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapalg/internal/testutil"
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/frame"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

// recordingEngine keeps the inputs it was handed.
type recordingEngine struct {
	inputs map[string]*frame.Frame
}

func (r *recordingEngine) Evaluate(_ context.Context, _ ops.Node, inputs map[string]*frame.Frame) (*frame.Frame, error) {
	r.inputs = inputs
	return frame.MustNew([]string{"ok"}), nil
}

func TestTransform_Validation(t *testing.T) {
	renamed := ops.Describe("d", "a", "x").Rename(map[string]string{"b": "a"}).Must()

	tests := []struct {
		name    string
		root    ops.Node
		data    map[string]*frame.Frame
		strict  bool
		wantErr string
		want    map[string][]string
	}{
		{
			name: "exact columns",
			root: ops.Describe("d", "x", "y").Must(),
			data: map[string]*frame.Frame{"d": frame.MustNew([]string{"x", "y"})},
			want: map[string][]string{"d": {"x", "y"}},
		},
		{
			name: "superset narrowed to declared order",
			root: ops.Describe("d", "x", "y").Must(),
			data: map[string]*frame.Frame{"d": frame.MustNew([]string{"z", "y", "x"})},
			want: map[string][]string{"d": {"x", "y"}},
		},
		{
			name:    "superset refused when strict",
			root:    ops.Describe("d", "x", "y").Must(),
			data:    map[string]*frame.Frame{"d": frame.MustNew([]string{"z", "y", "x"})},
			strict:  true,
			wantErr: "undeclared columns",
		},
		{
			name:    "missing columns",
			root:    ops.Describe("d", "x", "y").Must(),
			data:    map[string]*frame.Frame{"d": frame.MustNew([]string{"x"})},
			wantErr: "missing columns",
		},
		{
			name:    "missing table",
			root:    ops.Describe("d", "x").Must(),
			data:    map[string]*frame.Frame{"e": frame.MustNew([]string{"x"})},
			wantErr: "no data supplied",
		},
		{
			name: "rename target tolerated when not strict",
			root: renamed,
			data: map[string]*frame.Frame{"d": frame.MustNew([]string{"a", "x", "b"})},
			want: map[string][]string{"d": {"a", "x"}},
		},
		{
			name:    "rename target refused when strict",
			root:    renamed,
			data:    map[string]*frame.Frame{"d": frame.MustNew([]string{"a", "x", "b"})},
			strict:  true,
			wantErr: "forbidden columns",
		},
		{
			name:    "nil frame",
			root:    ops.Describe("d", "x").Must(),
			data:    map[string]*frame.Frame{"d": nil},
			wantErr: "nil frame",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &recordingEngine{}
			_, err := Transform(context.Background(), tt.root, tt.data, Options{Engine: engine, Strict: tt.strict})
			if tt.wantErr != "" {
				require.Error(t, err)
				var schemaErr *core.SchemaError
				assert.True(t, errors.As(err, &schemaErr), "want *core.SchemaError, got %T", err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, engine.inputs)
				return
			}
			require.NoError(t, err)
			got := make(map[string][]string, len(engine.inputs))
			for k, f := range engine.inputs {
				got[k] = f.Columns
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransformOne(t *testing.T) {
	ctx := context.Background()

	root := ops.Describe("d", "x").ExtendText("y", "x * 2").Must()
	got, err := TransformOne(ctx, root, frame.MustNew([]string{"x"}, []any{int64(1)}, []any{int64(3)}), Options{})
	require.NoError(t, err)
	want := frame.MustNew([]string{"x", "y"}, []any{int64(1), int64(2)}, []any{int64(3), int64(6)})
	assert.NoError(t, frame.Equivalent(want, got, frame.DefaultCompare))

	join := ops.Describe("a", "k").NaturalJoin(ops.Describe("b", "k"), []string{"k"}, core.JoinInner).Must()
	_, err = TransformOne(ctx, join, frame.MustNew([]string{"k"}), Options{})
	assert.ErrorContains(t, err, "has 2 leaves")
}

func TestSQLEngine_NestedMatchesCTE(t *testing.T) {
	ctx := context.Background()
	root := ops.Describe("d", "x").
		ExtendText("y", "x + 1").
		ExtendText("z", "y * 2").
		ExtendText("w", "z - x").
		Must()
	data := map[string]*frame.Frame{
		"d": frame.MustNew([]string{"x"}, []any{int64(1)}, []any{int64(2)}, []any{int64(-4)}),
	}
	want := frame.MustNew([]string{"x", "y", "z", "w"},
		[]any{int64(1), int64(2), int64(4), int64(3)},
		[]any{int64(2), int64(3), int64(6), int64(4)},
		[]any{int64(-4), int64(-3), int64(-6), int64(-2)},
	)

	results := make(map[sqlgen.Mode]*frame.Frame)
	for _, mode := range []sqlgen.Mode{sqlgen.ModeNested, sqlgen.ModeCTE} {
		engine := &SQLEngine{Mode: mode, Logger: testutil.NewTestLogger(t)}
		got, err := Transform(ctx, root, data, Options{Engine: engine})
		require.NoError(t, err, "mode %s", mode)
		assert.NoError(t, frame.Equivalent(want, got, frame.DefaultCompare), "mode %s", mode)
		results[mode] = got
	}
	assert.NoError(t, frame.Equivalent(results[sqlgen.ModeNested], results[sqlgen.ModeCTE], frame.DefaultCompare))
}

func TestSQLEngine_Pipelines(t *testing.T) {
	sales := frame.MustNew([]string{"region", "amount", "note"},
		[]any{"east", int64(10), "a"},
		[]any{"east", int64(5), nil},
		[]any{"west", int64(7), "c"},
	)
	managers := frame.MustNew([]string{"region", "manager"},
		[]any{"east", "ann"},
		[]any{"north", "nik"},
	)

	tests := []struct {
		name string
		root ops.Node
		data map[string]*frame.Frame
		want *frame.Frame
		opts frame.CompareOptions
	}{
		{
			name: "filter and order with limit",
			root: ops.Describe("sales", "region", "amount").
				SelectRowsText("amount > 5").
				OrderRows([]string{"amount"}, []string{"amount"}, 1).
				Must(),
			data: map[string]*frame.Frame{"sales": sales},
			want: frame.MustNew([]string{"region", "amount"}, []any{"east", int64(10)}),
		},
		{
			name: "reorder a limited order",
			root: ops.Describe("sales", "region", "amount").
				OrderRows([]string{"amount"}, []string{"amount"}, 2).
				OrderRows([]string{"region"}, nil, 0).
				Must(),
			data: map[string]*frame.Frame{"sales": sales},
			want: frame.MustNew([]string{"region", "amount"},
				[]any{"east", int64(10)},
				[]any{"west", int64(7)},
			),
		},
		{
			name: "grouped aggregation",
			root: ops.Describe("sales", "region", "amount").
				ProjectText([]string{"region"}, "total", "amount.sum()", "n", "_size()").
				Must(),
			data: map[string]*frame.Frame{"sales": sales},
			want: frame.MustNew([]string{"region", "total", "n"},
				[]any{"east", int64(15), int64(2)},
				[]any{"west", int64(7), int64(1)},
			),
			opts: frame.DefaultCompare,
		},
		{
			name: "left join keeps unmatched rows",
			root: ops.Describe("sales", "region", "amount").
				NaturalJoin(ops.Describe("managers", "region", "manager"), []string{"region"}, core.JoinLeft).
				Must(),
			data: map[string]*frame.Frame{"sales": sales, "managers": managers},
			want: frame.MustNew([]string{"region", "amount", "manager"},
				[]any{"east", int64(10), "ann"},
				[]any{"east", int64(5), "ann"},
				[]any{"west", int64(7), nil},
			),
			opts: frame.DefaultCompare,
		},
		{
			name: "concat with id column",
			root: ops.Describe("managers", "region", "manager").
				ConcatRows(ops.Describe("managers", "region", "manager"), ops.ConcatOptions{IDColumn: "src", AName: "a", BName: "b"}).
				SelectRowsText("region == 'north'").
				Must(),
			data: map[string]*frame.Frame{"managers": managers},
			want: frame.MustNew([]string{"region", "manager", "src"},
				[]any{"north", "nik", "a"},
				[]any{"north", "nik", "b"},
			),
			opts: frame.DefaultCompare,
		},
		{
			name: "rename swap",
			root: ops.Describe("managers", "region", "manager").
				Rename(map[string]string{"region": "manager", "manager": "region"}).
				SelectColumns("region").
				Must(),
			data: map[string]*frame.Frame{"managers": managers},
			want: frame.MustNew([]string{"region"}, []any{"ann"}, []any{"nik"}),
			opts: frame.DefaultCompare,
		},
		{
			name: "sql leaf",
			root: ops.SQL("SELECT region, amount FROM sales", []string{"region", "amount"}, "v").
				ExtendText("double", "amount * 2").
				Must(),
			data: map[string]*frame.Frame{"v": frame.MustNew([]string{"region", "amount"}, []any{"east", int64(4)})},
			want: frame.MustNew([]string{"region", "amount", "double"}, []any{"east", int64(4), int64(8)}),
		},
		{
			name: "empty input",
			root: ops.Describe("sales", "region", "amount").ExtendText("more", "amount + 1").Must(),
			data: map[string]*frame.Frame{"sales": frame.MustNew([]string{"region", "amount"})},
			want: frame.MustNew([]string{"region", "amount", "more"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transform(context.Background(), tt.root, tt.data, Options{Logger: testutil.NewTestLogger(t)})
			require.NoError(t, err)
			assert.NoError(t, frame.Equivalent(tt.want, got, tt.opts))
		})
	}
}

func TestSQLEngine_Isolation(t *testing.T) {
	ctx := context.Background()
	engine := NewSQLEngine(nil)
	root := ops.Describe("d", "x").Must()

	first, err := engine.Evaluate(ctx, root, map[string]*frame.Frame{"d": frame.MustNew([]string{"x"}, []any{int64(1)})})
	require.NoError(t, err)
	second, err := engine.Evaluate(ctx, root, map[string]*frame.Frame{"d": frame.MustNew([]string{"x"}, []any{int64(2)})})
	require.NoError(t, err)

	assert.Equal(t, [][]any{{int64(1)}}, first.Rows)
	assert.Equal(t, [][]any{{int64(2)}}, second.Rows)
}

func TestTransform_NilPipeline(t *testing.T) {
	_, err := Transform(context.Background(), nil, nil, Options{})
	assert.Error(t, err)
}

func TestSQLEngine_StackedOrderRows(t *testing.T) {
	ctx := context.Background()
	root := ops.Describe("d", "x", "y").
		OrderRows([]string{"x"}, nil, 2).
		OrderRows([]string{"y"}, nil, 0).
		Must()
	data := map[string]*frame.Frame{
		"d": frame.MustNew([]string{"x", "y"},
			[]any{int64(3), "a"},
			[]any{int64(1), "c"},
			[]any{int64(2), "b"},
		),
	}
	want := frame.MustNew([]string{"x", "y"}, []any{int64(2), "b"}, []any{int64(1), "c"})

	for _, mode := range []sqlgen.Mode{sqlgen.ModeNested, sqlgen.ModeCTE} {
		t.Run(string(mode), func(t *testing.T) {
			got, err := Transform(ctx, root, data, Options{Engine: &SQLEngine{Mode: mode}})
			require.NoError(t, err)
			assert.NoError(t, frame.Equivalent(want, got, frame.CompareOptions{}))
		})
	}
}
