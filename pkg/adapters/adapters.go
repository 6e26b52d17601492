// Package adapters registers every bundled database adapter.
//
//	import _ "github.com/leapstack-labs/leapalg/pkg/adapters"
package adapters

import (
	_ "github.com/leapstack-labs/leapalg/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapalg/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapalg/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapalg/pkg/adapters/sqlite"
)
