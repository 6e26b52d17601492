package ops

import (
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// Project aggregates the source, one row per group.
type Project struct {
	schema
	source  Node
	assigns []Assignment
	groupBy []string
}

// NewProject builds an aggregation. Output is groupBy followed by the
// assignment columns. Each assignment must be a reduction over the group
// (columns read outside a reduction must be grouping columns) or a constant.
// Without groupBy at least one assignment must reduce.
func NewProject(source Node, assigns []Assignment, groupBy []string) (*Project, error) {
	if len(assigns) == 0 && len(groupBy) == 0 {
		return nil, core.NewSchemaError(OpProject, "no assignments or grouping columns")
	}
	if err := checkNames(OpProject, "group column", groupBy); err != nil {
		return nil, err
	}
	if err := checkKnown(OpProject, source, groupBy); err != nil {
		return nil, err
	}
	targets := assignmentColumns(assigns)
	if err := checkNames(OpProject, "assignment", targets); err != nil {
		return nil, err
	}
	groups := expr.NewColumnSet(groupBy...)
	var clash []string
	for _, t := range targets {
		if groups.HasColumn(t) {
			clash = append(clash, t)
		}
	}
	if len(clash) > 0 {
		return nil, core.NewSchemaError(OpProject, "assignment repeats a grouping column", clash...)
	}
	reduces := false
	for _, a := range assigns {
		if a.Expr == nil {
			return nil, core.NewSchemaError(OpProject, "missing expression", a.Column)
		}
		if err := checkExprColumns(OpProject, source, a.Expr); err != nil {
			return nil, err
		}
		if !isGroupExpression(a.Expr, groups) {
			return nil, core.NewSchemaError(OpProject, "assignment is not a reduction or constant", a.Column)
		}
		reduces = reduces || hasReduction(a.Expr)
	}
	if len(groupBy) == 0 && !reduces {
		return nil, core.NewSchemaError(OpProject, "ungrouped aggregation needs at least one reduction")
	}
	return &Project{
		schema:  newSchema(append(append([]string(nil), groupBy...), targets...)),
		source:  source,
		assigns: copyAssignments(assigns),
		groupBy: append([]string(nil), groupBy...),
	}, nil
}

// isGroupExpression reports whether e yields one value per group: every
// column read outside a reduction is a grouping column, and no window
// function appears.
func isGroupExpression(e expr.Expr, groups expr.ColumnSet) bool {
	ok := true
	expr.Walk(e, func(n expr.Expr) bool {
		switch n := n.(type) {
		case *expr.ColumnRef:
			if !groups.HasColumn(n.Name()) {
				ok = false
			}
		case *expr.Call:
			if n.IsWindowFunction() {
				ok = false
			}
			if n.IsReduction() {
				return false
			}
		}
		return ok
	})
	return ok
}

func hasReduction(e expr.Expr) bool {
	found := false
	expr.Walk(e, func(n expr.Expr) bool {
		if c, ok := n.(*expr.Call); ok && c.IsReduction() {
			found = true
		}
		return !found
	})
	return found
}

func (p *Project) Op() string      { return OpProject }
func (p *Project) Sources() []Node { return []Node{p.source} }

// Source returns the input node.
func (p *Project) Source() Node { return p.source }

// Assignments returns the assignments in order.
func (p *Project) Assignments() []Assignment { return copyAssignments(p.assigns) }

// GroupBy returns the grouping columns.
func (p *Project) GroupBy() []string { return append([]string(nil), p.groupBy...) }

func (p *Project) String() string {
	return "Project(" + formatAssignments(p.assigns) + ", group_by=[" + strings.Join(p.groupBy, ", ") + "])"
}

func (p *Project) withSources(src []Node) (Node, error) {
	return NewProject(src[0], p.assigns, p.groupBy)
}
