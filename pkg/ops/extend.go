package ops

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// Window describes the partitioning and ordering of a windowed Extend.
type Window struct {
	PartitionBy []string
	OrderBy     []string
	// Reverse lists the OrderBy columns sorted descending.
	Reverse []string
}

// IsZero reports whether no window was requested.
func (w Window) IsZero() bool {
	return len(w.PartitionBy) == 0 && len(w.OrderBy) == 0
}

func (w Window) clone() Window {
	return Window{
		PartitionBy: append([]string(nil), w.PartitionBy...),
		OrderBy:     append([]string(nil), w.OrderBy...),
		Reverse:     append([]string(nil), w.Reverse...),
	}
}

func (w Window) String() string {
	var parts []string
	if len(w.PartitionBy) > 0 {
		parts = append(parts, "partition_by=["+strings.Join(w.PartitionBy, ", ")+"]")
	}
	if len(w.OrderBy) > 0 {
		parts = append(parts, "order_by=["+strings.Join(w.OrderBy, ", ")+"]")
	}
	if len(w.Reverse) > 0 {
		parts = append(parts, "reverse=["+strings.Join(w.Reverse, ", ")+"]")
	}
	return strings.Join(parts, ", ")
}

// Extend adds or overwrites columns with per-row expressions, optionally
// evaluated over a window.
type Extend struct {
	schema
	source  Node
	assigns []Assignment
	window  Window
}

// NewExtend derives columns from source. Overwritten columns keep their
// position; new columns are appended in assignment order.
func NewExtend(source Node, assigns []Assignment, window Window) (*Extend, error) {
	if len(assigns) == 0 {
		return nil, core.NewSchemaError(OpExtend, "no assignments")
	}
	targets := assignmentColumns(assigns)
	if err := checkNames(OpExtend, "assignment", targets); err != nil {
		return nil, err
	}
	for _, a := range assigns {
		if a.Expr == nil {
			return nil, core.NewSchemaError(OpExtend, "missing expression", a.Column)
		}
		if err := checkExprColumns(OpExtend, source, a.Expr); err != nil {
			return nil, err
		}
	}
	if err := checkSameStepReferences(assigns); err != nil {
		return nil, err
	}
	if err := checkWindow(OpExtend, source, window); err != nil {
		return nil, err
	}
	keys := expr.NewColumnSet(append(append([]string(nil), window.PartitionBy...), window.OrderBy...)...)
	var altered []string
	for _, t := range targets {
		if keys.HasColumn(t) {
			altered = append(altered, t)
		}
	}
	if len(altered) > 0 {
		return nil, core.NewSchemaError(OpExtend, "cannot assign window partition or order columns", altered...)
	}

	cols := source.ColumnNames()
	for _, t := range targets {
		if !source.HasColumn(t) {
			cols = append(cols, t)
		}
	}
	return &Extend{
		schema:  newSchema(cols),
		source:  source,
		assigns: copyAssignments(assigns),
		window:  window.clone(),
	}, nil
}

// checkSameStepReferences rejects an assignment that reads a column assigned
// by another assignment of the same step, since SQL evaluates them all against
// the incoming row.
func checkSameStepReferences(assigns []Assignment) error {
	targets := expr.NewColumnSet(assignmentColumns(assigns)...)
	var bad []string
	for _, a := range assigns {
		for _, c := range a.Expr.Columns() {
			if c != a.Column && targets.HasColumn(c) {
				bad = append(bad, c)
			}
		}
	}
	if len(bad) > 0 {
		return core.NewSchemaError(OpExtend, "assignment reads a column assigned in the same step", bad...)
	}
	return nil
}

func checkWindow(op string, source Node, w Window) error {
	if err := checkNames(op, "partition column", w.PartitionBy); err != nil {
		return err
	}
	if err := checkNames(op, "order column", w.OrderBy); err != nil {
		return err
	}
	if err := checkNames(op, "reverse column", w.Reverse); err != nil {
		return err
	}
	if err := checkKnown(op, source, w.PartitionBy); err != nil {
		return err
	}
	if err := checkKnown(op, source, w.OrderBy); err != nil {
		return err
	}
	return checkSubset(op, "reverse columns not in order_by", w.Reverse, w.OrderBy)
}

func (e *Extend) Op() string      { return OpExtend }
func (e *Extend) Sources() []Node { return []Node{e.source} }

// Source returns the input node.
func (e *Extend) Source() Node { return e.source }

// Assignments returns the assignments in order.
func (e *Extend) Assignments() []Assignment { return copyAssignments(e.assigns) }

// Window returns the window specification.
func (e *Extend) Window() Window { return e.window.clone() }

// Windowed reports whether reductions in this step are evaluated per window
// rather than collapsing rows.
func (e *Extend) Windowed() bool { return !e.window.IsZero() }

func (e *Extend) String() string {
	s := "Extend(" + formatAssignments(e.assigns)
	if w := e.window.String(); w != "" {
		s += ", " + w
	}
	return s + ")"
}

func (e *Extend) withSources(src []Node) (Node, error) {
	return NewExtend(src[0], e.assigns, e.window)
}

func formatAssignments(assigns []Assignment) string {
	parts := make([]string, len(assigns))
	for i, a := range assigns {
		parts[i] = fmt.Sprintf("%s: %s", a.Column, a.Expr)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
