package dialect

import (
	"testing"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDialect() *Dialect {
	return NewDialect("test").Build()
}

func TestQuoteIdentifier(t *testing.T) {
	ansi := testDialect()
	tick := NewDialect("tick").Identifiers("`", "`", core.NormLowercase).Build()

	tests := []struct {
		name    string
		d       *Dialect
		in      string
		want    string
		wantErr bool
	}{
		{"plain", ansi, "x", `"x"`, false},
		{"spaces and case", ansi, "My Col", `"My Col"`, false},
		{"embedded quote", ansi, `a"b`, "", true},
		{"empty", ansi, "", "", true},
		{"backtick lowercases", tick, "MyCol", "`mycol`", false},
		{"backtick rejects backtick", tick, "a`b", "", true},
		{"backtick allows double quote", tick, `a"b`, "`a\"b`", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.QuoteIdentifier(tt.in)
			if tt.wantErr {
				var dErr *core.DialectError
				require.ErrorAs(t, err, &dErr)
				assert.Equal(t, tt.d.Name, dErr.Dialect)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteTable(t *testing.T) {
	d := testDialect()
	got, err := d.QuoteTable("d", map[string]string{"schema": "s", "catalog": "c"})
	require.NoError(t, err)
	assert.Equal(t, `"c"."s"."d"`, got)

	got, err = d.QuoteTable("d", nil)
	require.NoError(t, err)
	assert.Equal(t, `"d"`, got)
}

func TestQuoteLiteral(t *testing.T) {
	d := testDialect()
	tests := []struct {
		lit  *expr.Literal
		want string
	}{
		{expr.Null(), "NULL"},
		{expr.Bool(true), "TRUE"},
		{expr.Int(-4), "-4"},
		{expr.Float(2), "2.0"},
		{expr.Str("it's"), "'it''s'"},
		{expr.Dec(decimal.RequireFromString("10.50")), "10.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.QuoteLiteral(tt.lit))
	}
}

func TestStringEscaper(t *testing.T) {
	d := NewDialect("escaping").StringEscaper(BackslashEscaper).Build()
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `'plain'`},
		{"it's", `'it\'s'`},
		{`a\b`, `'a\\b'`},
		{`\'`, `'\\\''`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.QuoteString(tt.in), tt.in)
	}
	assert.Equal(t, "'it''s'", testDialect().QuoteString("it's"))
}

func TestFormatExpr(t *testing.T) {
	d := testDialect()
	x, y := expr.Ref("x"), expr.Ref("y")
	tests := []struct {
		name string
		e    expr.Expr
		want string
	}{
		{"infix", expr.Add(x, expr.Int(1)), `"x" + 1`},
		{"nested", expr.Mul(expr.Add(x, expr.Int(1)), y), `("x" + 1) * "y"`},
		{"equality", expr.Eq(expr.Fn("sign", x), expr.Int(1)), `SIGN("x") = 1`},
		{"not equal", expr.Ne(x, y), `"x" <> "y"`},
		{"boolean", expr.And(expr.Gt(x, expr.Int(0)), expr.Not(expr.Lt(y, expr.Int(2)))), `("x" > 0) AND (NOT ("y" < 2))`},
		{"neg", expr.Neg(x), `-"x"`},
		{"neg of negative literal", expr.Neg(expr.Int(-3)), `-(-3)`},
		{"minus negative literal", expr.Sub(x, expr.Int(-3)), `"x" - (-3)`},
		{"mean", expr.Fn("mean", x), `AVG("x")`},
		{"size", expr.Fn("size"), `COUNT(1)`},
		{"nunique", expr.Fn("nunique", x), `COUNT(DISTINCT "x")`},
		{"fallback", expr.Fn("upper", expr.Ref("s")), `UPPER("s")`},
		{"if_else", expr.Fn("if_else", expr.Gt(x, y), x, y), `CASE WHEN "x" > "y" THEN "x" ELSE "y" END`},
		{"is_null compared", expr.Eq(expr.Fn("is_null", x), expr.Bool(false)), `("x" IS NULL) = FALSE`},
		{"mod", expr.Fn("mod", x, expr.Int(3)), `MOD("x", 3)`},
		{"percent", expr.Mod(x, expr.Int(3)), `"x" % 3`},
		{"string", expr.Eq(expr.Ref("s"), expr.Str("a")), `"s" = 'a'`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.FormatExpr(tt.e)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatWindowExpr(t *testing.T) {
	d := testDialect()
	x := expr.Ref("x")

	got, err := d.FormatWindowExpr(expr.Sub(x, expr.Fn("mean", x)), `PARTITION BY "g"`)
	require.NoError(t, err)
	assert.Equal(t, `"x" - AVG("x") OVER (PARTITION BY "g")`, got)

	got, err = d.FormatWindowExpr(expr.Fn("row_number"), "")
	require.NoError(t, err)
	assert.Equal(t, `ROW_NUMBER() OVER ()`, got)

	got, err = d.FormatWindowExpr(expr.Add(x, expr.Int(1)), `ORDER BY "x"`)
	require.NoError(t, err)
	assert.Equal(t, `"x" + 1`, got)
}

func TestFormatExpr_Errors(t *testing.T) {
	d := NewDialect("limited").
		Unsupported("median").
		Formatter("sign", Template(1, func(a []string) string {
			return "(CASE WHEN " + a[0] + " > 0 THEN 1 WHEN " + a[0] + " < 0 THEN -1 ELSE 0 END)"
		})).
		Build()

	_, err := d.FormatExpr(expr.Fn("median", expr.Ref("x")))
	var dErr *core.DialectError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, "median", dErr.Entity)

	_, err = d.FormatExpr(expr.Fn("sum", expr.Ref("x"), expr.Ref("y")))
	require.ErrorAs(t, err, &dErr)
	assert.Contains(t, dErr.Error(), "expects 1 arguments, got 2")

	got, err := d.FormatExpr(expr.Fn("sign", expr.Ref("x")))
	require.NoError(t, err)
	assert.Equal(t, `(CASE WHEN "x" > 0 THEN 1 WHEN "x" < 0 THEN -1 ELSE 0 END)`, got)
}

func TestJoinKeyword(t *testing.T) {
	d := NewDialect("nofull").UnsupportedJoins(core.JoinFull).Build()
	kw, err := d.JoinKeyword(core.JoinLeft)
	require.NoError(t, err)
	assert.Equal(t, "LEFT JOIN", kw)

	_, err = d.JoinKeyword(core.JoinFull)
	var dErr *core.DialectError
	require.ErrorAs(t, err, &dErr)
}

func TestTableStatements(t *testing.T) {
	d := NewDialect("pg").
		PlaceholderStyle(core.PlaceholderDollar).
		TypeName(expr.KindString, "TEXT").
		Build()

	create, err := d.CreateTableSQL("d", []string{"x", "s", "n"}, []expr.Kind{expr.KindInt, expr.KindString, expr.KindNull})
	require.NoError(t, err)
	assert.Equal(t, `CREATE TABLE "d" ("x" BIGINT, "s" TEXT, "n" TEXT)`, create)

	insert, err := d.InsertSQL("d", []string{"x", "s"})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "d" ("x", "s") VALUES ($1, $2)`, insert)

	drop, err := d.DropTableSQL("d")
	require.NoError(t, err)
	assert.Equal(t, `DROP TABLE IF EXISTS "d"`, drop)

	temp, err := d.CreateTempTableSQL("t", []string{"x"}, []expr.Kind{expr.KindBool})
	require.NoError(t, err)
	assert.Equal(t, `CREATE TEMPORARY TABLE "t" ("x" BOOLEAN)`, temp)

	_, err = d.CreateTableSQL(`bad"name`, []string{"x"}, nil)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	Register(NewDialect("Registry_Test").Build())

	d, ok := Get("registry_test")
	require.True(t, ok)
	assert.Equal(t, "Registry_Test", d.Name)
	assert.Contains(t, List(), "registry_test")

	_, err := Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownDialect)

	_, err = Lookup("")
	assert.ErrorIs(t, err, ErrDialectRequired)
}
