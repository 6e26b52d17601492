package expr

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
)

// Expr is a node of an expression tree.
type Expr interface {
	// Columns returns the sorted, de-duplicated column names the expression reads.
	Columns() []string
	// String returns the canonical dialect-neutral text form.
	String() string

	collect(dst map[string]struct{})
}

// ColumnRef reads one input column.
type ColumnRef struct {
	name string
}

// Ref returns a column reference without checking it against a schema.
// Pipeline constructors validate references when the expression is attached.
func Ref(name string) *ColumnRef {
	return &ColumnRef{name: name}
}

// Col returns a column reference bound to scope, failing when the column is absent.
func Col(scope Scope, name string) (*ColumnRef, error) {
	if name == "" {
		return nil, core.NewSchemaError("column", "empty column name")
	}
	if !scope.HasColumn(name) {
		return nil, core.NewSchemaError("column", "unknown column", name)
	}
	return &ColumnRef{name: name}, nil
}

// Name returns the referenced column name.
func (c *ColumnRef) Name() string { return c.name }

func (c *ColumnRef) Columns() []string { return []string{c.name} }

func (c *ColumnRef) String() string { return c.name }

func (c *ColumnRef) collect(dst map[string]struct{}) { dst[c.name] = struct{}{} }

// Call applies an operator to ordered arguments.
type Call struct {
	op   string
	args []Expr
}

// NewCall builds a call node. The argument slice is copied.
func NewCall(op string, args ...Expr) *Call {
	return &Call{op: strings.ToLower(op), args: append([]Expr(nil), args...)}
}

// Op returns the operator name.
func (c *Call) Op() string { return c.op }

// Args returns a copy of the arguments.
func (c *Call) Args() []Expr { return append([]Expr(nil), c.args...) }

// NumArgs returns the argument count.
func (c *Call) NumArgs() int { return len(c.args) }

// Arg returns the i-th argument.
func (c *Call) Arg(i int) Expr { return c.args[i] }

// IsReduction reports whether the call is a many-rows-to-one reduction.
func (c *Call) IsReduction() bool { return IsReduction(c.op) }

// IsWindowFunction reports whether the call only makes sense over a window.
func (c *Call) IsWindowFunction() bool { return IsWindowFunction(c.op) }

func (c *Call) Columns() []string { return sortedColumns(c) }

func (c *Call) collect(dst map[string]struct{}) {
	for _, a := range c.args {
		a.collect(dst)
	}
}

func (c *Call) String() string {
	switch {
	case IsInfix(c.op) && len(c.args) == 2:
		return operand(c.args[0]) + " " + c.op + " " + operand(c.args[1])
	case c.op == OpNeg && len(c.args) == 1:
		return "-" + operand(c.args[0])
	case c.op == OpNot && len(c.args) == 1:
		return "not " + operand(c.args[0])
	}
	parts := make([]string, len(c.args))
	for i, a := range c.args {
		parts[i] = a.String()
	}
	return c.op + "(" + strings.Join(parts, ", ") + ")"
}

// operand wraps compound sub-expressions in parentheses.
func operand(e Expr) string {
	if c, ok := e.(*Call); ok && (IsInfix(c.op) || c.op == OpNeg || c.op == OpNot) {
		return "(" + c.String() + ")"
	}
	return e.String()
}

func sortedColumns(e Expr) []string {
	set := make(map[string]struct{})
	e.collect(set)
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// IsConstant reports whether e reads no columns and calls no window functions.
func IsConstant(e Expr) bool {
	if len(e.Columns()) > 0 {
		return false
	}
	found := false
	Walk(e, func(n Expr) bool {
		if c, ok := n.(*Call); ok && (c.IsWindowFunction() || c.IsReduction()) {
			found = true
		}
		return !found
	})
	return !found
}

// Walk visits e and its arguments depth first. Returning false from fn skips
// the children of that node.
func Walk(e Expr, fn func(Expr) bool) {
	if !fn(e) {
		return
	}
	if c, ok := e.(*Call); ok {
		for _, a := range c.args {
			Walk(a, fn)
		}
	}
}

// Equal reports structural equality.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Equal(y)
	case *ColumnRef:
		y, ok := b.(*ColumnRef)
		return ok && x.name == y.name
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.op != y.op || len(x.args) != len(y.args) {
			return false
		}
		for i := range x.args {
			if !Equal(x.args[i], y.args[i]) {
				return false
			}
		}
		return true
	}
	return false
}
