// Package sqlite provides the SQLite SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package sqlite

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite is the SQLite dialect. SQLite has no SIGN, MOD or MEDIAN builtins
// in a default build, so sign and mod are spelled with CASE and % and the
// statistical reductions are refused.
var SQLite = dialect.NewDialect("sqlite").
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	Formatter("sign", dialect.Template(1, func(a []string) string {
		return "CASE WHEN " + a[0] + " > 0 THEN 1 WHEN " + a[0] + " < 0 THEN -1 ELSE 0 END"
	})).
	Formatter("mod", dialect.Infix("%")).
	Formatter(expr.OpFloorDiv, dialect.Template(2, func(a []string) string {
		return "CAST(" + a[0] + " / " + a[1] + " AS INTEGER)"
	})).
	Formatter("as_int64", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS INTEGER)" })).
	Formatter("as_str", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS TEXT)" })).
	Unsupported("median", "std", "var", "any_value").
	TypeName(expr.KindBool, "INTEGER").
	TypeName(expr.KindInt, "INTEGER").
	TypeName(expr.KindFloat, "REAL").
	TypeName(expr.KindString, "TEXT").
	TypeName(expr.KindDecimal, "NUMERIC").
	Build()
