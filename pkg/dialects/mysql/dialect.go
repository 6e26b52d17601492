// Package mysql provides the MySQL SQL dialect definition.
package mysql

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(MySQL)
}

// MySQL is the MySQL dialect. It has no FULL OUTER JOIN and no MEDIAN, and
// || is logical OR unless PIPES_AS_CONCAT is set.
var MySQL = dialect.NewDialect("mysql").
	Identifiers("`", "`", core.NormCaseSensitive).
	StringEscaper(dialect.BackslashEscaper).
	PlaceholderStyle(core.PlaceholderQuestion).
	Formatter("concat", dialect.Func("CONCAT", -1)).
	Formatter("as_int64", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS SIGNED)" })).
	Formatter("as_str", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS CHAR)" })).
	Formatter(expr.OpFloorDiv, dialect.Infix("DIV")).
	Unsupported("median").
	UnsupportedJoins(core.JoinFull).
	TypeName(expr.KindFloat, "DOUBLE").
	TypeName(expr.KindString, "TEXT").
	Build()
