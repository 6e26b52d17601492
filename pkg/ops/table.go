package ops

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
)

// Table declares a named source table and its columns.
type Table struct {
	schema
	name       string
	qualifiers map[string]string
	temporary  bool
}

// NewTable declares a table. Qualifiers (schema, catalog, ...) are optional.
func NewTable(name string, columns []string, qualifiers map[string]string) (*Table, error) {
	if name == "" {
		return nil, core.NewSchemaError(OpTable, "empty table name")
	}
	if len(columns) == 0 {
		return nil, core.NewSchemaError(OpTable, "no columns declared", name)
	}
	if err := checkNames(OpTable, "column", columns); err != nil {
		return nil, err
	}
	var q map[string]string
	if len(qualifiers) > 0 {
		q = make(map[string]string, len(qualifiers))
		for k, v := range qualifiers {
			q[k] = v
		}
	}
	return &Table{schema: newSchema(columns), name: name, qualifiers: q}, nil
}

// NewTempTable declares a session-scoped temporary table. Compiled SQL
// reports it among the temp tables a connection must create first.
func NewTempTable(name string, columns []string) (*Table, error) {
	t, err := NewTable(name, columns, nil)
	if err != nil {
		return nil, err
	}
	t.temporary = true
	return t, nil
}

func (t *Table) Op() string      { return OpTable }
func (t *Table) Sources() []Node { return nil }

// Name returns the unqualified table name.
func (t *Table) Name() string { return t.name }

// Qualifiers returns a copy of the qualifier map.
func (t *Table) Qualifiers() map[string]string {
	if t.qualifiers == nil {
		return nil
	}
	q := make(map[string]string, len(t.qualifiers))
	for k, v := range t.qualifiers {
		q[k] = v
	}
	return q
}

// Temporary reports whether the table was declared with NewTempTable.
func (t *Table) Temporary() bool { return t.temporary }

// Key identifies the table across a pipeline: sorted qualifiers then name.
func (t *Table) Key() string {
	return TableKey(t.name, t.qualifiers)
}

// TableKey formats a table identity, e.g. {(schema, s)}.d.
func TableKey(name string, qualifiers map[string]string) string {
	if len(qualifiers) == 0 {
		return name
	}
	parts := make([]string, 0, len(qualifiers))
	for _, k := range sortedKeys(qualifiers) {
		parts = append(parts, fmt.Sprintf("(%s, %s)", k, qualifiers[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}." + name
}

func (t *Table) String() string {
	return fmt.Sprintf("Table(%s, [%s])", t.Key(), strings.Join(t.columns, ", "))
}

func (t *Table) withSources([]Node) (Node, error) { return t, nil }
