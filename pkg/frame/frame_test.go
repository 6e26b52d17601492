package frame

import (
	"bytes"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func TestNew(t *testing.T) {
	_, err := New([]string{"x", "x"})
	assert.ErrorContains(t, err, "duplicate column")

	_, err = New([]string{"x", "y"}, []any{1})
	assert.ErrorContains(t, err, "row 0 has 1 values, want 2")

	f, err := New([]string{"x", "y"}, []any{1, "a"}, []any{2, "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
	assert.True(t, f.HasColumn("y"))
	col, ok := f.Column("y")
	require.True(t, ok)
	assert.Equal(t, []any{"a", "b"}, col)
}

func TestSelect(t *testing.T) {
	f := MustNew([]string{"x", "y", "z"}, []any{1, 2, 3})
	got, err := f.Select("z", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "x"}, got.Columns)
	assert.Equal(t, [][]any{{3, 1}}, got.Rows)

	_, err = f.Select("q")
	assert.ErrorContains(t, err, `"q"`)
}

func TestKinds(t *testing.T) {
	f := MustNew([]string{"i", "f", "mixed", "s", "b", "none", "d"},
		[]any{int64(1), 1.5, int64(1), "a", true, nil, decimal.RequireFromString("1.25")},
		[]any{nil, 2.5, 2.5, "b", false, nil, nil},
	)
	assert.Equal(t, []expr.Kind{
		expr.KindInt, expr.KindFloat, expr.KindFloat, expr.KindString, expr.KindBool, expr.KindNull, expr.KindDecimal,
	}, f.Kinds())
}

func TestEquivalent(t *testing.T) {
	base := MustNew([]string{"x", "y"}, []any{int64(1), "a"}, []any{int64(2), nil})
	tests := []struct {
		name    string
		other   *Frame
		opts    CompareOptions
		wantErr string
	}{
		{
			name:  "same",
			other: MustNew([]string{"x", "y"}, []any{int64(1), "a"}, []any{int64(2), nil}),
			opts:  DefaultCompare,
		},
		{
			name:  "reordered rows and columns",
			other: MustNew([]string{"y", "x"}, []any{nil, 2.0}, []any{[]byte("a"), 1}),
			opts:  DefaultCompare,
		},
		{
			name:    "row order matters",
			other:   MustNew([]string{"x", "y"}, []any{int64(2), nil}, []any{int64(1), "a"}),
			opts:    CompareOptions{},
			wantErr: "row 0",
		},
		{
			name:    "column order matters",
			other:   MustNew([]string{"y", "x"}, []any{"a", int64(1)}, []any{nil, int64(2)}),
			opts:    CompareOptions{IgnoreRowOrder: true},
			wantErr: "column 0 differs",
		},
		{
			name:    "value differs",
			other:   MustNew([]string{"x", "y"}, []any{int64(1), "a"}, []any{int64(3), nil}),
			opts:    DefaultCompare,
			wantErr: "differs",
		},
		{
			name:    "row count",
			other:   MustNew([]string{"x", "y"}, []any{int64(1), "a"}),
			opts:    DefaultCompare,
			wantErr: "row count differs",
		},
		{
			name:    "column set",
			other:   MustNew([]string{"x", "z"}, []any{int64(1), "a"}, []any{int64(2), nil}),
			opts:    DefaultCompare,
			wantErr: "column sets differ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Equivalent(base, tt.other, tt.opts)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, 0, false},
		{int64(3), 3.0, true},
		{int32(3), "3", true},
		{decimal.RequireFromString("0.1"), 0.1, true},
		{0.1 + 0.2, 0.3, true},
		{true, int64(1), true},
		{"a", []byte("a"), true},
		{"a", "b", false},
		{1.0, 1.1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValuesEqual(tt.a, tt.b, 1e-9), "%v vs %v", tt.a, tt.b)
	}
}

func TestCSV(t *testing.T) {
	f, err := DecodeCSV(strings.NewReader("x, y,z\n1,a,2.5\n,b,\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, f.Columns)
	assert.Equal(t, [][]any{{int64(1), "a", 2.5}, {nil, "b", nil}}, f.Rows)

	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))
	assert.Equal(t, "x,y,z\n1,a,2.5\n,b,\n", buf.String())
}

func TestScan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"x", "y"}).
			AddRow(int64(1), []byte("a")).
			AddRow(int64(2), nil),
	)
	rows, err := db.Query("SELECT x, y FROM d")
	require.NoError(t, err)
	f, err := Scan(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, f.Columns)
	assert.Equal(t, [][]any{{int64(1), "a"}, {int64(2), nil}}, f.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
