package ops

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// SelectRows keeps the rows satisfying a predicate.
type SelectRows struct {
	schema
	source    Node
	predicate expr.Expr
}

// NewSelectRows filters source by predicate.
func NewSelectRows(source Node, predicate expr.Expr) (*SelectRows, error) {
	if predicate == nil {
		return nil, core.NewSchemaError(OpSelectRows, "missing predicate")
	}
	if err := checkExprColumns(OpSelectRows, source, predicate); err != nil {
		return nil, err
	}
	if ops := aggregateCalls(predicate); len(ops) > 0 {
		return nil, core.NewSchemaError(OpSelectRows, "predicate uses aggregate or window functions", ops...)
	}
	return &SelectRows{schema: newSchema(source.ColumnNames()), source: source, predicate: predicate}, nil
}

// aggregateCalls lists the reductions and window functions in e, which a
// row filter cannot evaluate.
func aggregateCalls(e expr.Expr) []string {
	var found []string
	expr.Walk(e, func(n expr.Expr) bool {
		if c, ok := n.(*expr.Call); ok && (c.IsReduction() || c.IsWindowFunction()) {
			found = append(found, c.Op())
		}
		return true
	})
	return found
}

func (s *SelectRows) Op() string      { return OpSelectRows }
func (s *SelectRows) Sources() []Node { return []Node{s.source} }

// Source returns the input node.
func (s *SelectRows) Source() Node { return s.source }

// Predicate returns the row filter.
func (s *SelectRows) Predicate() expr.Expr { return s.predicate }

func (s *SelectRows) String() string { return "SelectRows(" + s.predicate.String() + ")" }

func (s *SelectRows) withSources(src []Node) (Node, error) {
	return NewSelectRows(src[0], s.predicate)
}

// OrderRows sorts the source, optionally keeping only the first rows.
type OrderRows struct {
	schema
	source  Node
	orderBy []string
	reverse []string
	limit   int
}

// NewOrderRows orders source by orderBy. Columns in reverse sort descending.
// A limit of zero keeps every row.
func NewOrderRows(source Node, orderBy, reverse []string, limit int) (*OrderRows, error) {
	if len(orderBy) == 0 {
		return nil, core.NewSchemaError(OpOrderRows, "no order columns")
	}
	if limit < 0 {
		return nil, core.NewSchemaError(OpOrderRows, fmt.Sprintf("negative limit %d", limit))
	}
	if err := checkWindow(OpOrderRows, source, Window{OrderBy: orderBy, Reverse: reverse}); err != nil {
		return nil, err
	}
	return &OrderRows{
		schema:  newSchema(source.ColumnNames()),
		source:  source,
		orderBy: append([]string(nil), orderBy...),
		reverse: append([]string(nil), reverse...),
		limit:   limit,
	}, nil
}

func (o *OrderRows) Op() string      { return OpOrderRows }
func (o *OrderRows) Sources() []Node { return []Node{o.source} }

// Source returns the input node.
func (o *OrderRows) Source() Node { return o.source }

// OrderBy returns the sort columns.
func (o *OrderRows) OrderBy() []string { return append([]string(nil), o.orderBy...) }

// Reverse returns the descending sort columns.
func (o *OrderRows) Reverse() []string { return append([]string(nil), o.reverse...) }

// Limit returns the row limit, zero when unlimited.
func (o *OrderRows) Limit() int { return o.limit }

func (o *OrderRows) String() string {
	s := "OrderRows([" + strings.Join(o.orderBy, ", ") + "]"
	if len(o.reverse) > 0 {
		s += ", reverse=[" + strings.Join(o.reverse, ", ") + "]"
	}
	if o.limit > 0 {
		s += fmt.Sprintf(", limit=%d", o.limit)
	}
	return s + ")"
}

func (o *OrderRows) withSources(src []Node) (Node, error) {
	return NewOrderRows(src[0], o.orderBy, o.reverse, o.limit)
}
