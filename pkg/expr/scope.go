package expr

// Scope resolves column names during expression construction.
type Scope interface {
	HasColumn(name string) bool
}

// ColumnSet is a Scope over a fixed set of names.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from names.
func NewColumnSet(names ...string) ColumnSet {
	s := make(ColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s ColumnSet) HasColumn(name string) bool {
	_, ok := s[name]
	return ok
}

// Missing returns the names of cols not in s, in input order.
func (s ColumnSet) Missing(cols []string) []string {
	var out []string
	for _, c := range cols {
		if !s.HasColumn(c) {
			out = append(out, c)
		}
	}
	return out
}
