// Package dialects registers every built-in SQL dialect. Import it for side
// effects when the dialect is chosen at run time:
//
//	import _ "github.com/leapstack-labs/leapalg/pkg/dialects"
package dialects

import (
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/ansi"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/bigquery"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/snowflake"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/spark"
	_ "github.com/leapstack-labs/leapalg/pkg/dialects/sqlite"
)
