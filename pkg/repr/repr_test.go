package repr

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects"
	"github.com/leapstack-labs/leapalg/pkg/expr"
	"github.com/leapstack-labs/leapalg/pkg/ops"
	"github.com/leapstack-labs/leapalg/pkg/sqlgen"
)

func samplePipelines(t *testing.T) map[string]ops.Node {
	t.Helper()
	managers := ops.DescribeTemp("managers", "region", "manager")

	return map[string]ops.Node{
		"window filter join order": ops.DescribeQualified("sales", map[string]string{"schema": "shop"}, "region", "amount", "day").
			ExtendWindowText(ops.Window{PartitionBy: []string{"region"}, OrderBy: []string{"day"}, Reverse: []string{"day"}}, "n", "_row_number()").
			SelectRowsText("n <= 3 and amount > 2.0").
			NaturalJoin(managers, []string{"region"}, core.JoinLeft).
			OrderRows([]string{"region", "amount"}, []string{"amount"}, 10).
			Must(),
		"aggregate with constant": ops.Describe("sales", "region", "amount").
			ProjectText([]string{"region"}, "total", "amount.sum()", "tag", "'x'", "n", "_size()").
			Rename(map[string]string{"sum_amount": "total"}).
			Must(),
		"concat with id": ops.Describe("a", "x").
			ConcatRows(ops.Describe("b", "x"), ops.ConcatOptions{IDColumn: "src", AName: "left", BName: "right"}).
			SelectColumns("src", "x").
			Must(),
		"sql leaf": ops.SQL("SELECT 1 AS x", []string{"x"}, "v").
			Extend(
				ops.A("d", expr.Mul(expr.Ref("x"), expr.Dec(decimal.RequireFromString("1.25")))),
				ops.A("neg", expr.Neg(expr.Int(3))),
				ops.A("True", expr.Bool(true)),
			).
			ExtendText("f", "True * 2.0").
			Must(),
		"cross join": ops.Describe("a", "x").
			NaturalJoin(ops.Describe("b", "y"), nil, core.JoinCross).
			Must(),
	}
}

func TestRoundTrip(t *testing.T) {
	for name, root := range samplePipelines(t) {
		for _, format := range []Format{FormatYAML, FormatJSON} {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				data, err := Encode(root, format)
				require.NoError(t, err)

				back, err := Decode(data, format)
				require.NoError(t, err, "decoding:\n%s", data)
				assert.Equal(t, ops.Format(root), ops.Format(back))

				again, err := Encode(back, format)
				require.NoError(t, err)
				assert.Equal(t, string(data), string(again))

				for _, dname := range dialect.List() {
					d, ok := dialect.Get(dname)
					require.True(t, ok)
					for _, mode := range []sqlgen.Mode{sqlgen.ModeNested, sqlgen.ModeCTE} {
						want, wantErr := sqlgen.ToSQL(root, d, sqlgen.Options{Mode: mode})
						got, gotErr := sqlgen.ToSQL(back, d, sqlgen.Options{Mode: mode})
						if wantErr != nil {
							assert.EqualError(t, gotErr, wantErr.Error(), "%s/%s", dname, mode)
							continue
						}
						require.NoError(t, gotErr, "%s/%s", dname, mode)
						assert.Equal(t, want, got, "%s/%s", dname, mode)
					}
				}
			})
		}
	}
}

func TestEncode_YAMLShape(t *testing.T) {
	root := ops.Describe("d", "x", "y").
		ExtendText("z", "x + y").
		SelectRowsText("z > 0").
		Must()

	data, err := Encode(root, FormatYAML)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "- op: Table\n  name: d\n  columns:\n"), text)
	assert.Contains(t, text, "- op: Extend\n  ops:\n")
	assert.Contains(t, text, "z: x + y\n")
	assert.Contains(t, text, "- op: SelectRows\n  expr: z > 0\n")

	json, err := Encode(root, FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(json), `"op": "Extend"`)
	assert.Contains(t, string(json), `"z": "x + y"`)
}

func TestEncode_StructuralExpressions(t *testing.T) {
	root := ops.Describe("d", "x").
		Extend(
			ops.A("a", expr.Neg(expr.Int(1))),
			ops.A("b", expr.Dec(decimal.RequireFromString("0.5"))),
		).
		Must()

	p, err := ToRepr(root)
	require.NoError(t, err)
	require.Len(t, p, 2)
	opsMap, ok := p[1].Get("ops")
	require.True(t, ok)

	a, _ := opsMap.(*Map).Get("a")
	require.IsType(t, &Map{}, a, "neg(1) does not survive a text round trip")
	call, _ := a.(*Map).Get("call")
	assert.Equal(t, "neg", call)

	b, _ := opsMap.(*Map).Get("b")
	require.IsType(t, &Map{}, b)
	kind, _ := b.(*Map).Get("kind")
	assert.Equal(t, "decimal", kind)
}

func TestDecode_HandWritten(t *testing.T) {
	src := `
- op: Table
  name: orders
  qualifiers: {schema: shop}
  columns: [id, amount, status]
- op: SelectRows
  expr: status == "paid"
- op: Project
  group_by: [status]
  ops:
    total: amount.sum()
- op: NaturalJoin
  by: [status]
  jointype: left
  b:
    - op: Table
      name: labels
      columns: [status, label]
`
	root, err := Decode([]byte(src), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "total", "label"}, root.ColumnNames())

	tables, err := ops.Tables(root)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "empty", src: `[]`, wantErr: "empty pipeline"},
		{name: "missing op", src: `[{name: d}]`, wantErr: `missing "op"`},
		{name: "unknown op", src: `[{op: Pivot}]`, wantErr: `unknown op "Pivot"`},
		{name: "must start with leaf", src: `[{op: SelectColumns, columns: [x]}]`, wantErr: "must start with"},
		{
			name:    "leaf in the middle",
			src:     `[{op: Table, name: d, columns: [x]}, {op: Table, name: e, columns: [x]}]`,
			wantErr: "can only start a pipeline",
		},
		{name: "unknown key", src: `[{op: Table, name: d, columns: [x], colums: [y]}]`, wantErr: `does not take "colums"`},
		{
			name:    "unknown column",
			src:     `[{op: Table, name: d, columns: [x]}, {op: SelectRows, expr: y > 1}]`,
			wantErr: "unknown column",
		},
		{
			name:    "bad join type",
			src:     `[{op: Table, name: d, columns: [x]}, {op: NaturalJoin, by: [x], jointype: sideways, b: [{op: Table, name: e, columns: [x]}]}]`,
			wantErr: `unknown join type "sideways"`,
		},
		{
			name:    "inconsistent table",
			src:     `[{op: Table, name: d, columns: [x]}, {op: NaturalJoin, by: [x], jointype: inner, b: [{op: Table, name: d, columns: [x, y]}]}]`,
			wantErr: "inconsistent column sets",
		},
		{name: "duplicate key", src: "- op: Table\n  op: Table\n", wantErr: "duplicate key"},
		{
			name:    "structural expression without kind",
			src:     `[{op: Table, name: d, columns: [x]}, {op: Extend, ops: {y: {nope: 1}}}]`,
			wantErr: "expression mapping needs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src), FormatYAML)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMap_JSONOrder(t *testing.T) {
	var m Map
	require.NoError(t, m.UnmarshalJSON([]byte(`{"z": 1, "a": [1.5, "s", null, true], "m": {"k": 2}}`)))
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())

	z, _ := m.Get("z")
	assert.Equal(t, int64(1), z)
	a, _ := m.Get("a")
	assert.Equal(t, []any{1.5, "s", nil, true}, a)

	out, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"z": 1, "a": [1.5, "s", null, true], "m": {"k": 2}}`, string(out))
	assert.Equal(t, `{"z":1,"a":[1.5,"s",null,true],"m":{"k":2}}`, string(out))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("p.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("p.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("p"))
}
