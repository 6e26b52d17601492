// Package snowflake provides the Snowflake SQL dialect definition.
package snowflake

import (
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(Snowflake)
}

// Snowflake is the Snowflake dialect. Deep subquery nesting compiles slowly
// there, so it prefers WITH chains.
var Snowflake = dialect.NewDialect("snowflake").
	DefaultSchema("PUBLIC").
	PreferCTE().
	StringEscaper(dialect.BackslashEscaper).
	Formatter(expr.OpMod, dialect.Func("MOD", 2)).
	Formatter("as_int64", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS NUMBER)" })).
	TypeName(expr.KindFloat, "FLOAT").
	TypeName(expr.KindDecimal, "NUMBER(38, 10)").
	Build()
