// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies,
// making it suitable for tools that need dialect information without
// the overhead of database connections.
package postgres

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect. PERCENTILE_CONT is an ordered-set
// aggregate and takes no OVER clause.
var Postgres = dialect.NewDialect("postgres").
	DefaultSchema("public").
	PlaceholderStyle(core.PlaceholderDollar).
	Formatter("median", dialect.Template(1, func(a []string) string {
		return "PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY " + a[0] + ")"
	})).
	Formatter("as_str", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS TEXT)" })).
	Formatter(expr.OpMod, dialect.Func("MOD", 2)).
	NoWindow("median").
	Unsupported("any_value").
	TypeName(expr.KindString, "TEXT").
	TypeName(expr.KindDecimal, "NUMERIC").
	Build()
