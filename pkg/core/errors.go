package core

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaError reports a pipeline that does not fit the schemas it is built over.
// It is raised eagerly by node constructors and by DAG inspection.
type SchemaError struct {
	// Op is the operator variant that rejected the input ("Extend", "Rename", ...).
	Op string
	// Msg describes the violation.
	Msg string
	// Names lists the offending columns, tables or keys.
	Names []string
}

// NewSchemaError builds a SchemaError. Names are reported in the order given.
func NewSchemaError(op, msg string, names ...string) *SchemaError {
	return &SchemaError{Op: op, Msg: msg, Names: names}
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Msg)
	if len(e.Names) > 0 {
		b.WriteString(": ")
		b.WriteString(quoteList(e.Names))
	}
	return b.String()
}

// DialectError reports SQL that cannot be produced for a dialect.
type DialectError struct {
	Dialect string
	// Entity is the identifier, operator or join kind that could not be rendered.
	Entity string
	Msg    string
}

func (e *DialectError) Error() string {
	return fmt.Sprintf("dialect %s: %s: %s", e.Dialect, e.Msg, strconv.Quote(e.Entity))
}

// ConnectionError wraps a failure reported by a database driver.
// The cause is passed through untouched.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ", ")
}
