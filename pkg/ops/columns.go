package ops

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
)

// SelectColumns keeps an ordered subset of the source columns.
type SelectColumns struct {
	schema
	source Node
}

// NewSelectColumns narrows source to columns, in the given order.
func NewSelectColumns(source Node, columns []string) (*SelectColumns, error) {
	if len(columns) == 0 {
		return nil, core.NewSchemaError(OpSelectColumns, "no columns selected")
	}
	if err := checkNames(OpSelectColumns, "column", columns); err != nil {
		return nil, err
	}
	if err := checkKnown(OpSelectColumns, source, columns); err != nil {
		return nil, err
	}
	return &SelectColumns{schema: newSchema(columns), source: source}, nil
}

func (s *SelectColumns) Op() string      { return OpSelectColumns }
func (s *SelectColumns) Sources() []Node { return []Node{s.source} }

// Source returns the input node.
func (s *SelectColumns) Source() Node { return s.source }

func (s *SelectColumns) String() string {
	return "SelectColumns([" + strings.Join(s.columns, ", ") + "])"
}

func (s *SelectColumns) withSources(src []Node) (Node, error) {
	return NewSelectColumns(src[0], s.columns)
}

// Rename renames columns. The mapping is new name to old name.
type Rename struct {
	schema
	source  Node
	mapping map[string]string
	// effective drops self-renames.
	effective map[string]string
}

// NewRename renames source columns. Every old name must exist, no two new
// names may share an old name, and a new name may only reuse a current name
// when that column is itself renamed away in the same step (so swaps are
// legal). A self-rename such as {"a": "a"} is accepted and ignored.
func NewRename(source Node, mapping map[string]string) (*Rename, error) {
	if len(mapping) == 0 {
		return nil, core.NewSchemaError(OpRename, "empty mapping")
	}
	effective := make(map[string]string, len(mapping))
	byOld := make(map[string]string, len(mapping))
	var missing, shared []string
	for _, newName := range sortedKeys(mapping) {
		old := mapping[newName]
		if newName == "" || old == "" {
			return nil, core.NewSchemaError(OpRename, "empty column name")
		}
		if !source.HasColumn(old) {
			missing = append(missing, old)
			continue
		}
		if prev, ok := byOld[old]; ok {
			shared = append(shared, fmt.Sprintf("%s <- %s, %s", old, prev, newName))
			continue
		}
		byOld[old] = newName
		if newName != old {
			effective[newName] = old
		}
	}
	if len(missing) > 0 {
		return nil, core.NewSchemaError(OpRename, "unknown columns", missing...)
	}
	if len(shared) > 0 {
		return nil, core.NewSchemaError(OpRename, "column renamed more than once", shared...)
	}

	renamedAway := make(map[string]bool, len(effective))
	for _, old := range effective {
		renamedAway[old] = true
	}
	var collisions []string
	for _, newName := range sortedKeys(effective) {
		if source.HasColumn(newName) && !renamedAway[newName] {
			collisions = append(collisions, newName)
		}
	}
	if len(collisions) > 0 {
		return nil, core.NewSchemaError(OpRename, "new name collides with an existing column", collisions...)
	}

	reverse := make(map[string]string, len(effective))
	for newName, old := range effective {
		reverse[old] = newName
	}
	cols := source.ColumnNames()
	for i, c := range cols {
		if n, ok := reverse[c]; ok {
			cols[i] = n
		}
	}
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return &Rename{schema: newSchema(cols), source: source, mapping: m, effective: effective}, nil
}

func (r *Rename) Op() string      { return OpRename }
func (r *Rename) Sources() []Node { return []Node{r.source} }

// Source returns the input node.
func (r *Rename) Source() Node { return r.source }

// Mapping returns the mapping as given, new name to old name.
func (r *Rename) Mapping() map[string]string {
	m := make(map[string]string, len(r.mapping))
	for k, v := range r.mapping {
		m[k] = v
	}
	return m
}

// Renamed returns the old name a new column was renamed from.
func (r *Rename) Renamed(newName string) (string, bool) {
	old, ok := r.effective[newName]
	return old, ok
}

// NewNames returns the names introduced by this step, sorted.
func (r *Rename) NewNames() []string { return sortedKeys(r.effective) }

func (r *Rename) String() string {
	parts := make([]string, 0, len(r.mapping))
	for _, k := range sortedKeys(r.mapping) {
		parts = append(parts, k+": "+r.mapping[k])
	}
	return "Rename({" + strings.Join(parts, ", ") + "})"
}

func (r *Rename) withSources(src []Node) (Node, error) {
	return NewRename(src[0], r.mapping)
}
