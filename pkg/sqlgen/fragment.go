package sqlgen

import "sort"

// fragment is one lowered operator: either a reference to a stored table
// or a query step with its own alias.
type fragment interface {
	columns() []string
	temps() []string
}

// term is one select-list entry. An empty sql passes the source column
// of the same name through.
type term struct {
	name string
	sql  string
}

func passThrough(cols []string) []term {
	terms := make([]term, len(cols))
	for i, c := range cols {
		terms[i] = term{name: c}
	}
	return terms
}

// clause is a trailing WHERE, GROUP BY, ORDER BY or LIMIT clause.
type clause struct {
	keyword string
	items   []string
}

// tableRef reads a stored table. It needs an alias only when joined.
type tableRef struct {
	table string
	cols  []string
	temp  []string
}

func (t *tableRef) columns() []string { return t.cols }
func (t *tableRef) temps() []string   { return t.temp }

type stepKind int

const (
	unaryStep stepKind = iota
	binaryStep
	unionStep
	opaqueQuery
)

func (k stepKind) String() string {
	switch k {
	case unaryStep:
		return "unary"
	case binaryStep:
		return "binary"
	case unionStep:
		return "union"
	default:
		return "opaque"
	}
}

// queryStep is a rendered SELECT (or raw SQL) that later steps refer to by
// alias. Unary steps keep their parts so a root ORDER BY can be folded in.
type queryStep struct {
	kind  stepKind
	alias string
	cols  []string
	temp  []string
	lines block

	terms   []term
	from    block
	clauses []clause
	ordered bool
}

func (s *queryStep) columns() []string { return s.cols }
func (s *queryStep) temps() []string   { return s.temp }

// mergeTemps unions the temp tables of the given fragments, sorted.
func mergeTemps(frags ...fragment) []string {
	seen := make(map[string]struct{})
	for _, f := range frags {
		for _, t := range f.temps() {
			seen[t] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
