// Package ops defines the operator IR: immutable, validated pipeline steps
// over declared table schemas.
//
// Every constructor checks its inputs against the schemas of its sources and
// returns a *core.SchemaError on violation, so a node that exists is a node
// whose output columns are known exactly.
package ops

import (
	"sort"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// Operator variant names.
const (
	OpTable         = "Table"
	OpExtend        = "Extend"
	OpProject       = "Project"
	OpSelectRows    = "SelectRows"
	OpSelectColumns = "SelectColumns"
	OpRename        = "Rename"
	OpOrderRows     = "OrderRows"
	OpNaturalJoin   = "NaturalJoin"
	OpConcatRows    = "ConcatRows"
	OpSQL           = "SQLNode"
)

// Node is one step of a pipeline.
type Node interface {
	// Op returns the variant name.
	Op() string
	// ColumnNames returns the ordered output columns.
	ColumnNames() []string
	// HasColumn reports whether name is an output column.
	HasColumn(name string) bool
	// Sources returns the input nodes, first source first.
	Sources() []Node
	// String describes this step alone.
	String() string

	withSources(sources []Node) (Node, error)
}

// Leaf is a node with no sources, identified across a pipeline by its key.
type Leaf interface {
	Node
	Key() string
}

// Assignment binds a result column to an expression.
type Assignment struct {
	Column string
	Expr   expr.Expr
}

// A is shorthand for an Assignment.
func A(column string, e expr.Expr) Assignment {
	return Assignment{Column: column, Expr: e}
}

// schema carries the output columns shared by every node type.
type schema struct {
	columns []string
	set     expr.ColumnSet
}

func newSchema(columns []string) schema {
	cols := append([]string(nil), columns...)
	return schema{columns: cols, set: expr.NewColumnSet(cols...)}
}

func (s schema) ColumnNames() []string      { return append([]string(nil), s.columns...) }
func (s schema) HasColumn(name string) bool { return s.set.HasColumn(name) }

// checkNames rejects empty and repeated names.
func checkNames(op, what string, names []string) error {
	seen := make(map[string]bool, len(names))
	var dups []string
	for _, n := range names {
		if n == "" {
			return core.NewSchemaError(op, "empty "+what+" name")
		}
		if seen[n] {
			dups = append(dups, n)
		}
		seen[n] = true
	}
	if len(dups) > 0 {
		return core.NewSchemaError(op, "duplicate "+what, dups...)
	}
	return nil
}

// checkKnown rejects names that are not columns of src.
func checkKnown(op string, src Node, names []string) error {
	var missing []string
	for _, n := range names {
		if !src.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return core.NewSchemaError(op, "unknown columns", missing...)
	}
	return nil
}

func checkExprColumns(op string, src Node, e expr.Expr) error {
	return checkKnown(op, src, e.Columns())
}

func checkSubset(op, what string, sub, of []string) error {
	set := expr.NewColumnSet(of...)
	if missing := set.Missing(sub); len(missing) > 0 {
		return core.NewSchemaError(op, what, missing...)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func assignmentColumns(assigns []Assignment) []string {
	cols := make([]string, len(assigns))
	for i, a := range assigns {
		cols[i] = a.Column
	}
	return cols
}

func copyAssignments(assigns []Assignment) []Assignment {
	return append([]Assignment(nil), assigns...)
}
