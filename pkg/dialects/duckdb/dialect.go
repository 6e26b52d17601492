// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import (
	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect.
var DuckDB = dialect.NewDialect("duckdb").
	DefaultSchema("main").
	PlaceholderStyle(core.PlaceholderQuestion).
	Formatter(expr.OpFloorDiv, dialect.Infix("//")).
	TypeName(expr.KindFloat, "DOUBLE").
	Build()
