package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/dialect"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

type cte struct {
	alias string
	body  block
}

// compiler holds the state of one Compile call.
type compiler struct {
	d    *dialect.Dialect
	mode Mode
	l    layout
	next int
	ctes []cte
}

func (c *compiler) newAlias() string {
	c.next++
	return "step_" + strconv.Itoa(c.next)
}

// compile lowers the pipeline bottom-up over its post-order listing, so
// nothing recurses on pipeline depth.
func (c *compiler) compile(root ops.Node) (block, []string, error) {
	nodes := ops.PostOrder(root)
	var results []fragment
	for i, n := range nodes {
		src := n.Sources()
		args := append([]fragment(nil), results[len(results)-len(src):]...)
		results = results[:len(results)-len(src)]
		f, err := c.lower(n, args, i == len(nodes)-1)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, f)
	}

	top, err := c.finish(results[0])
	if err != nil {
		return nil, nil, err
	}
	lines := top.lines
	if c.mode == ModeCTE && len(c.ctes) > 0 {
		entries := make(block, 0, len(c.ctes))
		for i, e := range c.ctes {
			suffix := ""
			if i < len(c.ctes)-1 {
				suffix = ","
			}
			q, err := c.d.QuoteIdentifier(e.alias)
			if err != nil {
				return nil, nil, err
			}
			entry := c.l.paren(e.body, suffix)
			entry[0] = q + " AS ("
			entries = append(entries, entry...)
		}
		lines = concat(c.l.clause("WITH", entries), lines)
	}
	return lines, top.temp, nil
}

// finish makes sure the root renders as a SELECT.
func (c *compiler) finish(f fragment) (*queryStep, error) {
	if s, ok := f.(*queryStep); ok && s.kind != opaqueQuery {
		return s, nil
	}
	return c.unary(f, passThrough(f.columns()), nil)
}

func (c *compiler) lower(n ops.Node, src []fragment, root bool) (fragment, error) {
	switch n := n.(type) {
	case *ops.Table:
		q, err := c.d.QuoteTable(n.Name(), n.Qualifiers())
		if err != nil {
			return nil, err
		}
		t := &tableRef{table: q, cols: n.ColumnNames()}
		if n.Temporary() {
			t.temp = []string{n.Name()}
		}
		return t, nil
	case *ops.SQLNode:
		return &queryStep{
			kind:  opaqueQuery,
			alias: c.newAlias(),
			cols:  n.ColumnNames(),
			lines: block{n.Text()},
		}, nil
	case *ops.Extend:
		return c.lowerExtend(n, src[0])
	case *ops.Project:
		return c.lowerProject(n, src[0])
	case *ops.SelectRows:
		pred, err := c.d.FormatExpr(n.Predicate())
		if err != nil {
			return nil, err
		}
		return c.unary(src[0], passThrough(n.ColumnNames()), []clause{{"WHERE", []string{pred}}})
	case *ops.SelectColumns:
		return c.unary(src[0], passThrough(n.ColumnNames()), nil)
	case *ops.Rename:
		return c.lowerRename(n, src[0])
	case *ops.OrderRows:
		return c.lowerOrderRows(n, src[0], root)
	case *ops.NaturalJoin:
		return c.lowerJoin(n, src[0], src[1])
	case *ops.ConcatRows:
		return c.lowerConcat(n, src[0], src[1])
	}
	return nil, fmt.Errorf("sqlgen: unsupported operator %s", n.Op())
}

func (c *compiler) lowerExtend(n *ops.Extend, src fragment) (fragment, error) {
	over, err := c.overClause(n.Window())
	if err != nil {
		return nil, err
	}
	defs := make(map[string]string)
	for _, a := range n.Assignments() {
		s, err := c.d.FormatWindowExpr(a.Expr, over)
		if err != nil {
			return nil, err
		}
		defs[a.Column] = s
	}
	cols := n.ColumnNames()
	terms := make([]term, len(cols))
	for i, col := range cols {
		terms[i] = term{name: col, sql: defs[col]}
	}
	return c.unary(src, terms, nil)
}

func (c *compiler) overClause(w ops.Window) (string, error) {
	var parts []string
	if len(w.PartitionBy) > 0 {
		q, err := c.d.QuoteIdentifiers(w.PartitionBy)
		if err != nil {
			return "", err
		}
		parts = append(parts, "PARTITION BY "+strings.Join(q, ", "))
	}
	if len(w.OrderBy) > 0 {
		items, err := c.orderItems(w.OrderBy, w.Reverse)
		if err != nil {
			return "", err
		}
		parts = append(parts, "ORDER BY "+strings.Join(items, ", "))
	}
	return strings.Join(parts, " "), nil
}

func (c *compiler) orderItems(orderBy, reverse []string) ([]string, error) {
	desc := make(map[string]bool, len(reverse))
	for _, r := range reverse {
		desc[r] = true
	}
	items := make([]string, len(orderBy))
	for i, col := range orderBy {
		q, err := c.d.QuoteIdentifier(col)
		if err != nil {
			return nil, err
		}
		if desc[col] {
			q += " DESC"
		}
		items[i] = q
	}
	return items, nil
}

func (c *compiler) lowerProject(n *ops.Project, src fragment) (fragment, error) {
	groupBy := n.GroupBy()
	terms := passThrough(groupBy)
	for _, a := range n.Assignments() {
		s, err := c.d.FormatExpr(a.Expr)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term{name: a.Column, sql: s})
	}
	var clauses []clause
	if len(groupBy) > 0 {
		q, err := c.d.QuoteIdentifiers(groupBy)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause{"GROUP BY", q})
	}
	return c.unary(src, terms, clauses)
}

func (c *compiler) lowerRename(n *ops.Rename, src fragment) (fragment, error) {
	cols := n.ColumnNames()
	terms := make([]term, len(cols))
	for i, col := range cols {
		terms[i] = term{name: col}
		if old, ok := n.Renamed(col); ok {
			q, err := c.d.QuoteIdentifier(old)
			if err != nil {
				return nil, err
			}
			terms[i].sql = q
		}
	}
	return c.unary(src, terms, nil)
}

func (c *compiler) lowerOrderRows(n *ops.OrderRows, src fragment, root bool) (fragment, error) {
	items, err := c.orderItems(n.OrderBy(), n.Reverse())
	if err != nil {
		return nil, err
	}
	clauses := []clause{{"ORDER BY", items}}
	if n.Limit() > 0 {
		clauses = append(clauses, clause{"LIMIT", []string{strconv.Itoa(n.Limit())}})
	}
	// At the root an unordered unary step takes the ORDER BY directly.
	if s, ok := src.(*queryStep); ok && root && s.kind == unaryStep && !s.ordered {
		merged := *s
		merged.clauses = append(append([]clause(nil), s.clauses...), clauses...)
		merged.ordered = true
		lines, err := c.selectBlock(merged.terms, merged.from, merged.clauses)
		if err != nil {
			return nil, err
		}
		merged.lines = lines
		return &merged, nil
	}
	return c.unary(src, passThrough(n.ColumnNames()), clauses)
}

func (c *compiler) lowerJoin(n *ops.NaturalJoin, a, b fragment) (fragment, error) {
	aItem, qa, err := c.joinItem(a)
	if err != nil {
		return nil, err
	}
	bItem, qb, err := c.joinItem(b)
	if err != nil {
		return nil, err
	}
	kind := n.Kind()
	keyword, err := c.d.JoinKeyword(kind)
	if err != nil {
		return nil, err
	}

	by := n.By()
	keys := make(map[string]string, len(by))
	on := make([]string, len(by))
	for i, k := range by {
		qk, err := c.d.QuoteIdentifier(k)
		if err != nil {
			return nil, err
		}
		left, right := qa+"."+qk, qb+"."+qk
		on[i] = left + " = " + right
		switch kind {
		case core.JoinRight:
			keys[k] = right
		case core.JoinFull:
			keys[k] = "COALESCE(" + left + ", " + right + ")"
		default:
			keys[k] = left
		}
	}
	cols := n.ColumnNames()
	terms := make([]term, len(cols))
	for i, col := range cols {
		terms[i] = term{name: col, sql: keys[col]}
	}

	from := concat(c.l.clause("FROM", aItem), c.l.clause(keyword, bItem))
	if len(on) > 0 {
		from = concat(from, c.l.clause("ON", block{strings.Join(on, " AND ")}))
	}
	lines, err := c.selectBlock(terms, from, nil)
	if err != nil {
		return nil, err
	}
	return &queryStep{
		kind:  binaryStep,
		alias: c.newAlias(),
		cols:  cols,
		temp:  mergeTemps(a, b),
		lines: lines,
		terms: terms,
		from:  from,
	}, nil
}

// joinItem renders a join operand. Tables get a fresh alias here so key
// columns can be qualified.
func (c *compiler) joinItem(f fragment) (block, string, error) {
	if t, ok := f.(*tableRef); ok {
		qa, err := c.d.QuoteIdentifier(c.newAlias())
		if err != nil {
			return nil, "", err
		}
		return block{t.table + " " + qa}, qa, nil
	}
	s := f.(*queryStep)
	qa, err := c.d.QuoteIdentifier(s.alias)
	if err != nil {
		return nil, "", err
	}
	item, err := c.fromItem(f)
	return item, qa, err
}

func (c *compiler) lowerConcat(n *ops.ConcatRows, a, b fragment) (fragment, error) {
	opts := n.Options()
	cols := n.ColumnNames()
	shared := cols
	if opts.IDColumn != "" {
		shared = cols[:len(cols)-1]
	}
	branch := func(f fragment, label string) (block, error) {
		terms := passThrough(shared)
		if opts.IDColumn != "" {
			terms = append(terms, term{name: opts.IDColumn, sql: c.d.QuoteString(label)})
		}
		item, err := c.fromItem(f)
		if err != nil {
			return nil, err
		}
		return c.selectBlock(terms, c.l.clause("FROM", item), nil)
	}
	aLines, err := branch(a, opts.AName)
	if err != nil {
		return nil, err
	}
	bLines, err := branch(b, opts.BName)
	if err != nil {
		return nil, err
	}
	return &queryStep{
		kind:  unionStep,
		alias: c.newAlias(),
		cols:  cols,
		temp:  mergeTemps(a, b),
		lines: concat(aLines, block{"UNION ALL"}, bLines),
	}, nil
}

// unary builds a single-source SELECT step.
func (c *compiler) unary(src fragment, terms []term, clauses []clause) (*queryStep, error) {
	item, err := c.fromItem(src)
	if err != nil {
		return nil, err
	}
	from := c.l.clause("FROM", item)
	lines, err := c.selectBlock(terms, from, clauses)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(terms))
	for i, t := range terms {
		cols[i] = t.name
	}
	return &queryStep{
		kind:    unaryStep,
		alias:   c.newAlias(),
		cols:    cols,
		temp:    mergeTemps(src),
		lines:   lines,
		terms:   terms,
		from:    from,
		clauses: clauses,
		ordered: hasOrdering(clauses),
	}, nil
}

// hasOrdering reports whether a step already ends in ORDER BY or LIMIT.
func hasOrdering(clauses []clause) bool {
	for _, cl := range clauses {
		if cl.keyword == "ORDER BY" || cl.keyword == "LIMIT" {
			return true
		}
	}
	return false
}

// fromItem renders a source for a FROM clause: the table name, the aliased
// sub-select in nested mode, or the alias of a WITH entry in CTE mode.
func (c *compiler) fromItem(f fragment) (block, error) {
	switch f := f.(type) {
	case *tableRef:
		return block{f.table}, nil
	case *queryStep:
		qa, err := c.d.QuoteIdentifier(f.alias)
		if err != nil {
			return nil, err
		}
		if c.mode == ModeCTE {
			c.ctes = append(c.ctes, cte{alias: f.alias, body: f.lines})
			return block{qa}, nil
		}
		return c.l.paren(f.lines, " "+qa), nil
	}
	return nil, fmt.Errorf("sqlgen: unknown fragment %T", f)
}

func (c *compiler) selectBlock(terms []term, from block, clauses []clause) (block, error) {
	items, err := c.selectItems(terms)
	if err != nil {
		return nil, err
	}
	out := concat(c.l.clause("SELECT", c.l.list(items)), from)
	for _, cl := range clauses {
		out = concat(out, c.l.clause(cl.keyword, c.l.list(cl.items)))
	}
	return out, nil
}

func (c *compiler) selectItems(terms []term) ([]string, error) {
	if len(terms) == 0 {
		q, err := c.d.QuoteIdentifier(PlaceholderColumn)
		if err != nil {
			return nil, err
		}
		return []string{"1 AS " + q}, nil
	}
	items := make([]string, len(terms))
	for i, t := range terms {
		q, err := c.d.QuoteIdentifier(t.name)
		if err != nil {
			return nil, err
		}
		if t.sql != "" && t.sql != q {
			q = t.sql + " AS " + q
		}
		items[i] = q
	}
	return items, nil
}
