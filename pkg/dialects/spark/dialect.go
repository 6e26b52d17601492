// Package spark provides the Spark SQL dialect definition (also used by
// Databricks).
package spark

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(Spark)
}

// Spark is the Spark SQL dialect. The metastore stores names in lower case,
// so identifiers are lowered before quoting.
var Spark = dialect.NewDialect("spark").
	Identifiers("`", "`", core.NormLowercase).
	StringEscaper(dialect.BackslashEscaper).
	DefaultSchema("default").
	Formatter("median", dialect.Template(1, func(a []string) string { return "PERCENTILE(" + a[0] + ", 0.5)" })).
	Formatter("as_str", dialect.Template(1, func(a []string) string { return "CAST(" + a[0] + " AS STRING)" })).
	Formatter(expr.OpFloorDiv, dialect.Infix("DIV")).
	TypeName(expr.KindFloat, "DOUBLE").
	TypeName(expr.KindString, "STRING").
	Build()
