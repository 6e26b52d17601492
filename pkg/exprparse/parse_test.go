package exprparse

import (
	"testing"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cols := []string{"x", "y", "s", "g"}
	tests := []struct {
		src  string
		want string
	}{
		{"x + 1", "x + 1"},
		{"(x + 1) * y", "(x + 1) * y"},
		{"x.sign() == 1", "sign(x) == 1"},
		{"x.max()", "max(x)"},
		{"_row_number()", "row_number()"},
		{"-x", "-x"},
		{"-3", "-3"},
		{"-2.5 + x", "-2.5 + x"},
		{"not (x > y)", "not (x > y)"},
		{"(x > 1) & (y < 2)", "(x > 1) and (y < 2)"},
		{"x > 1 or y < 2", "(x > 1) or (y < 2)"},
		{"x % 3", "x % 3"},
		{"x.mod(3)", "mod(x, 3)"},
		{"x // 2", "x // 2"},
		{"x ** 2", "pow(x, 2)"},
		{"coalesce(x, 0)", "coalesce(x, 0)"},
		{`s == "a"`, `s == "a"`},
		{"x if g else y", "if_else(g, x, y)"},
		{"x.is_null() == False", "is_null(x) == False"},
		{"None", "None"},
		{"x.trimstr(0, 2)", "trimstr(x, 0, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			e, err := ParseColumns(tt.src, cols)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestParse_Values(t *testing.T) {
	e, err := Parse("x + offset", Env{
		Columns: expr.NewColumnSet("x", "offset"),
		Values:  map[string]any{"offset": 10},
	})
	require.NoError(t, err)
	assert.Equal(t, "x + 10", e.String())
	assert.Equal(t, []string{"x"}, e.Columns())
}

func TestParse_UnknownColumn(t *testing.T) {
	_, err := ParseColumns("x + z", []string{"x"})
	var schemaErr *core.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"z"}, schemaErr.Names)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", "x +", "parse expression"},
		{"keyword args", "coalesce(x, y=1)", "keyword arguments"},
		{"bare attribute", "x.sign", "must be called"},
		{"list", "[x]", "unsupported expression"},
		{"bytes", `b"x"`, "bytes literals"},
		{"huge int", "123456789012345678901234567890", "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseColumns(tt.src, []string{"x", "y"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
