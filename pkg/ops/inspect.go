package ops

import (
	"sort"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// PostOrder lists the nodes under root with every source before its consumer
// and a join's first source before its second. A node reachable along two
// paths appears once per path.
func PostOrder(root Node) []Node {
	type frame struct {
		n    Node
		done bool
	}
	var out []Node
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.done {
			out = append(out, f.n)
			continue
		}
		stack = append(stack, frame{n: f.n, done: true})
		src := f.n.Sources()
		for i := len(src) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: src[i]})
		}
	}
	return out
}

// Leaves returns the leaves under root by key. Leaves sharing a key must
// declare the same column set (and, for SQL leaves, the same text).
func Leaves(root Node) (map[string]Leaf, error) {
	leaves := make(map[string]Leaf)
	for _, n := range PostOrder(root) {
		leaf, ok := n.(Leaf)
		if !ok {
			continue
		}
		prev, seen := leaves[leaf.Key()]
		if !seen {
			leaves[leaf.Key()] = leaf
			continue
		}
		if err := sameLeaf(prev, leaf); err != nil {
			return nil, err
		}
	}
	return leaves, nil
}

func sameLeaf(a, b Leaf) error {
	if a.Op() != b.Op() {
		return core.NewSchemaError(a.Op(), "key used by both a table and a SQL node", a.Key())
	}
	if !sameColumnSet(a.ColumnNames(), b.ColumnNames()) {
		return core.NewSchemaError(a.Op(), "inconsistent column sets for key", a.Key())
	}
	if sa, ok := a.(*SQLNode); ok && sa.text != b.(*SQLNode).text {
		return core.NewSchemaError(OpSQL, "inconsistent SQL text for view", a.Key())
	}
	return nil
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := expr.NewColumnSet(a...)
	for _, c := range b {
		if !set.HasColumn(c) {
			return false
		}
	}
	return true
}

// Tables returns the table leaves under root by key, checking consistency.
func Tables(root Node) (map[string]*Table, error) {
	leaves, err := Leaves(root)
	if err != nil {
		return nil, err
	}
	tables := make(map[string]*Table)
	for k, l := range leaves {
		if t, ok := l.(*Table); ok {
			tables[k] = t
		}
	}
	return tables, nil
}

// ForbiddenColumns returns, per table key, the column names that renames
// downstream of the table introduce without the table declaring them. Input
// data carrying such a column would collide with a renamed one. A rename
// that restores a declared name contributes nothing, so a swap nets to empty.
func ForbiddenColumns(root Node) (map[string][]string, error) {
	tables, err := Tables(root)
	if err != nil {
		return nil, err
	}
	introduced := make(map[string]map[string]bool, len(tables))
	for k := range tables {
		introduced[k] = make(map[string]bool)
	}
	for _, n := range PostOrder(root) {
		r, ok := n.(*Rename)
		if !ok || len(r.effective) == 0 {
			continue
		}
		for _, sub := range PostOrder(r.source) {
			t, ok := sub.(*Table)
			if !ok {
				continue
			}
			for name := range r.effective {
				if !t.HasColumn(name) {
					introduced[t.Key()][name] = true
				}
			}
		}
	}
	out := make(map[string][]string, len(introduced))
	for k, names := range introduced {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		out[k] = list
	}
	return out, nil
}

// CheckConstraints checks a data model (leaf key to available columns)
// against the leaves of root. Every declared column must be available.
// In strict mode the available columns must match exactly and must not
// include forbidden columns.
func CheckConstraints(root Node, model map[string][]string, strict bool) error {
	leaves, err := Leaves(root)
	if err != nil {
		return err
	}
	var forbidden map[string][]string
	if strict {
		if forbidden, err = ForbiddenColumns(root); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(leaves) {
		leaf := leaves[key]
		have, ok := model[key]
		if !ok {
			return core.NewSchemaError(leaf.Op(), "no data supplied for", key)
		}
		available := expr.NewColumnSet(have...)
		if missing := available.Missing(leaf.ColumnNames()); len(missing) > 0 {
			return core.NewSchemaError(leaf.Op(), "data for "+key+" is missing columns", missing...)
		}
		if !strict {
			continue
		}
		var bad []string
		for _, f := range forbidden[key] {
			if available.HasColumn(f) {
				bad = append(bad, f)
			}
		}
		if len(bad) > 0 {
			return core.NewSchemaError(leaf.Op(), "data for "+key+" carries forbidden columns", bad...)
		}
		declared := expr.NewColumnSet(leaf.ColumnNames()...)
		if extra := declared.Missing(have); len(extra) > 0 {
			return core.NewSchemaError(leaf.Op(), "data for "+key+" has undeclared columns", extra...)
		}
	}
	return nil
}

// Rebuild replaces leaves under root using fn and reconstructs every
// consumer, revalidating each step. fn returns its argument to keep a leaf.
func Rebuild(root Node, fn func(Leaf) (Node, error)) (Node, error) {
	type frame struct {
		n    Node
		done bool
	}
	var results []Node
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		src := f.n.Sources()
		if !f.done && len(src) > 0 {
			stack = append(stack, frame{n: f.n, done: true})
			for i := len(src) - 1; i >= 0; i-- {
				stack = append(stack, frame{n: src[i]})
			}
			continue
		}
		if len(src) == 0 {
			leaf, ok := f.n.(Leaf)
			if !ok {
				results = append(results, f.n)
				continue
			}
			r, err := fn(leaf)
			if err != nil {
				return nil, err
			}
			results = append(results, r)
			continue
		}
		args := append([]Node(nil), results[len(results)-len(src):]...)
		results = results[:len(results)-len(src)]
		r, err := f.n.withSources(args)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results[0], nil
}
