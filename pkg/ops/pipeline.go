package ops

import (
	"fmt"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
	"github.com/leapstack-labs/leapalg/pkg/exprparse"
)

// Pipeline chains node constructors. The first failure is kept and every
// later step is skipped, so a chain can be built without checking each step:
//
//	node, err := ops.Describe("d", "x", "y").
//		ExtendText("z", "x + y").
//		SelectRowsText("z > 0").
//		Node()
type Pipeline struct {
	node Node
	err  error
}

// From starts a pipeline at an existing node.
func From(n Node) *Pipeline {
	if n == nil {
		return &Pipeline{err: core.NewSchemaError("", "nil node")}
	}
	return &Pipeline{node: n}
}

// Describe starts a pipeline at an unqualified table.
func Describe(name string, columns ...string) *Pipeline {
	return DescribeQualified(name, nil, columns...)
}

// DescribeQualified starts a pipeline at a qualified table.
func DescribeQualified(name string, qualifiers map[string]string, columns ...string) *Pipeline {
	t, err := NewTable(name, columns, qualifiers)
	if err != nil {
		return &Pipeline{err: err}
	}
	return &Pipeline{node: t}
}

// DescribeTemp starts a pipeline at a temporary table.
func DescribeTemp(name string, columns ...string) *Pipeline {
	t, err := NewTempTable(name, columns)
	if err != nil {
		return &Pipeline{err: err}
	}
	return &Pipeline{node: t}
}

// SQL starts a pipeline at a raw SQL leaf.
func SQL(text string, columns []string, viewName string) *Pipeline {
	s, err := NewSQLNode(text, columns, viewName)
	if err != nil {
		return &Pipeline{err: err}
	}
	return &Pipeline{node: s}
}

// Node returns the built node or the first error.
func (p *Pipeline) Node() (Node, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.node, nil
}

// Err returns the first error, if any.
func (p *Pipeline) Err() error { return p.err }

// Must returns the node and panics on error. Intended for tests and fixed
// pipelines declared at package level.
func (p *Pipeline) Must() Node {
	if p.err != nil {
		panic(p.err)
	}
	return p.node
}

func (p *Pipeline) then(fn func(Node) (Node, error)) *Pipeline {
	if p.err != nil {
		return p
	}
	n, err := fn(p.node)
	if err != nil {
		return &Pipeline{err: err}
	}
	return &Pipeline{node: n}
}

// Extend appends an Extend step.
func (p *Pipeline) Extend(assigns ...Assignment) *Pipeline {
	return p.ExtendWindow(Window{}, assigns...)
}

// ExtendWindow appends a windowed Extend step.
func (p *Pipeline) ExtendWindow(w Window, assigns ...Assignment) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		n, err := NewExtend(src, assigns, w)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// ExtendText appends an Extend step from alternating column and expression
// text arguments.
func (p *Pipeline) ExtendText(pairs ...string) *Pipeline {
	return p.ExtendWindowText(Window{}, pairs...)
}

// ExtendWindowText is ExtendText over a window.
func (p *Pipeline) ExtendWindowText(w Window, pairs ...string) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		assigns, err := ParseAssignments(OpExtend, src, pairs...)
		if err != nil {
			return nil, err
		}
		n, err := NewExtend(src, assigns, w)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// Project appends an aggregation step.
func (p *Pipeline) Project(groupBy []string, assigns ...Assignment) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		n, err := NewProject(src, assigns, groupBy)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// ProjectText appends an aggregation step from alternating column and
// expression text arguments.
func (p *Pipeline) ProjectText(groupBy []string, pairs ...string) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		assigns, err := ParseAssignments(OpProject, src, pairs...)
		if err != nil {
			return nil, err
		}
		n, err := NewProject(src, assigns, groupBy)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// SelectRows appends a row filter.
func (p *Pipeline) SelectRows(predicate expr.Expr) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		n, err := NewSelectRows(src, predicate)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// SelectRowsText appends a row filter parsed from text.
func (p *Pipeline) SelectRowsText(predicate string) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		e, err := exprparse.Parse(predicate, exprparse.Env{Columns: src})
		if err != nil {
			return nil, err
		}
		n, err := NewSelectRows(src, e)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// SelectColumns keeps the named columns in order.
func (p *Pipeline) SelectColumns(columns ...string) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		n, err := NewSelectColumns(src, columns)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// DropColumns keeps every column except the named ones.
func (p *Pipeline) DropColumns(columns ...string) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		if err := checkKnown(OpSelectColumns, src, columns); err != nil {
			return nil, err
		}
		drop := expr.NewColumnSet(columns...)
		var keep []string
		for _, c := range src.ColumnNames() {
			if !drop.HasColumn(c) {
				keep = append(keep, c)
			}
		}
		n, err := NewSelectColumns(src, keep)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// Rename appends a rename step, new name to old name.
func (p *Pipeline) Rename(mapping map[string]string) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		n, err := NewRename(src, mapping)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// OrderRows appends a sort step.
func (p *Pipeline) OrderRows(orderBy, reverse []string, limit int) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		n, err := NewOrderRows(src, orderBy, reverse, limit)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// NaturalJoin joins the pipeline with other.
func (p *Pipeline) NaturalJoin(other *Pipeline, by []string, kind core.JoinKind) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		b, err := other.Node()
		if err != nil {
			return nil, err
		}
		n, err := NewNaturalJoin(src, b, by, kind)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// ConcatRows stacks other's rows below the pipeline's.
func (p *Pipeline) ConcatRows(other *Pipeline, opts ConcatOptions) *Pipeline {
	return p.then(func(src Node) (Node, error) {
		b, err := other.Node()
		if err != nil {
			return nil, err
		}
		n, err := NewConcatRows(src, b, opts)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// ParseAssignments parses alternating column and expression text against the
// columns of src.
func ParseAssignments(op string, src Node, pairs ...string) ([]Assignment, error) {
	if len(pairs)%2 != 0 {
		return nil, core.NewSchemaError(op, fmt.Sprintf("odd number of assignment arguments (%d)", len(pairs)))
	}
	assigns := make([]Assignment, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		e, err := exprparse.Parse(pairs[i+1], exprparse.Env{Columns: src})
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, pairs[i], err)
		}
		assigns = append(assigns, A(pairs[i], e))
	}
	return assigns, nil
}
