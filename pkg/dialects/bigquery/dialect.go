// Package bigquery provides the BigQuery SQL dialect definition.
package bigquery

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(BigQuery)
}

// BigQuery is the BigQuery standard SQL dialect. It refuses deeply nested
// subqueries sooner than WITH chains, so CTE output is the default.
var BigQuery = dialect.NewDialect("bigquery").
	Identifiers("`", "`", core.NormCaseSensitive).
	PreferCTE().
	StringEscaper(dialect.BackslashEscaper).
	Formatter(expr.OpMod, dialect.Func("MOD", 2)).
	Formatter(expr.OpDiv, dialect.Func("IEEE_DIVIDE", 2)).
	Formatter(expr.OpFloorDiv, dialect.Template(2, func(a []string) string { return "DIV(" + a[0] + ", " + a[1] + ")" })).
	Formatter("median", dialect.Template(1, func(a []string) string { return "APPROX_QUANTILES(" + a[0] + ", 2)[OFFSET(1)]" })).
	NoWindow("median").
	Formatter("std", dialect.Func("STDDEV_SAMP", 1)).
	Formatter("var", dialect.Func("VAR_SAMP", 1)).
	Formatter("concat", dialect.Func("CONCAT", -1)).
	Formatter("as_int64", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS INT64)" })).
	Formatter("as_str", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS STRING)" })).
	TypeName(expr.KindBool, "BOOL").
	TypeName(expr.KindInt, "INT64").
	TypeName(expr.KindFloat, "FLOAT64").
	TypeName(expr.KindString, "STRING").
	TypeName(expr.KindDecimal, "NUMERIC").
	Build()
