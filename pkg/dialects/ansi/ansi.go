// Package ansi provides the base ANSI SQL dialect: double-quoted identifiers,
// single-quoted strings and the shared operator renderings.
//
// Other dialects start from the same defaults and override only what their
// database spells differently.
package ansi

import "github.com/leapstack-labs/leapalg/pkg/dialect"

func init() {
	dialect.Register(ANSI)
}

// ANSI is the base ANSI SQL dialect.
var ANSI = dialect.NewDialect("ansi").Build()
