package ops

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// NaturalJoin joins two sources on equal key columns.
type NaturalJoin struct {
	schema
	a, b Node
	by   []string
	kind core.JoinKind
}

// NewNaturalJoin joins a and b on by. Output is a's columns followed by b's
// columns not in a. Non-key columns present on both sides are rejected.
// CROSS joins take no key columns; every other kind needs at least one.
func NewNaturalJoin(a, b Node, by []string, kind core.JoinKind) (*NaturalJoin, error) {
	k, ok := core.ParseJoinKind(string(kind))
	if !ok {
		return nil, core.NewSchemaError(OpNaturalJoin, "unknown join kind", string(kind))
	}
	if k == core.JoinCross && len(by) > 0 {
		return nil, core.NewSchemaError(OpNaturalJoin, "cross join takes no key columns", by...)
	}
	if k != core.JoinCross && len(by) == 0 {
		return nil, core.NewSchemaError(OpNaturalJoin, "no key columns for "+string(k)+" join")
	}
	if err := checkNames(OpNaturalJoin, "key column", by); err != nil {
		return nil, err
	}
	if err := checkKnown(OpNaturalJoin, a, by); err != nil {
		return nil, err
	}
	if err := checkKnown(OpNaturalJoin, b, by); err != nil {
		return nil, err
	}
	keys := expr.NewColumnSet(by...)
	var shared []string
	cols := a.ColumnNames()
	for _, c := range b.ColumnNames() {
		if !a.HasColumn(c) {
			cols = append(cols, c)
			continue
		}
		if !keys.HasColumn(c) {
			shared = append(shared, c)
		}
	}
	if len(shared) > 0 {
		return nil, core.NewSchemaError(OpNaturalJoin, "non-key columns on both sides", shared...)
	}
	return &NaturalJoin{
		schema: newSchema(cols),
		a:      a,
		b:      b,
		by:     append([]string(nil), by...),
		kind:   k,
	}, nil
}

func (j *NaturalJoin) Op() string      { return OpNaturalJoin }
func (j *NaturalJoin) Sources() []Node { return []Node{j.a, j.b} }

// Left returns the first source.
func (j *NaturalJoin) Left() Node { return j.a }

// Right returns the second source.
func (j *NaturalJoin) Right() Node { return j.b }

// By returns the key columns.
func (j *NaturalJoin) By() []string { return append([]string(nil), j.by...) }

// Kind returns the join kind.
func (j *NaturalJoin) Kind() core.JoinKind { return j.kind }

func (j *NaturalJoin) String() string {
	return fmt.Sprintf("NaturalJoin(by=[%s], kind=%s)", strings.Join(j.by, ", "), j.kind)
}

func (j *NaturalJoin) withSources(src []Node) (Node, error) {
	return NewNaturalJoin(src[0], src[1], j.by, j.kind)
}

// ConcatOptions labels the origin of concatenated rows.
type ConcatOptions struct {
	// IDColumn, when set, is appended holding AName or BName.
	IDColumn string
	AName    string
	BName    string
}

// ConcatRows stacks the rows of two sources with the same columns.
type ConcatRows struct {
	schema
	a, b Node
	opts ConcatOptions
}

// NewConcatRows appends b's rows to a's. Column sets must match; output
// follows a's column order.
func NewConcatRows(a, b Node, opts ConcatOptions) (*ConcatRows, error) {
	aCols, bCols := a.ColumnNames(), b.ColumnNames()
	var diff []string
	for _, c := range aCols {
		if !b.HasColumn(c) {
			diff = append(diff, c)
		}
	}
	for _, c := range bCols {
		if !a.HasColumn(c) {
			diff = append(diff, c)
		}
	}
	if len(diff) > 0 {
		return nil, core.NewSchemaError(OpConcatRows, "column sets differ", diff...)
	}
	cols := aCols
	if opts.IDColumn != "" {
		if a.HasColumn(opts.IDColumn) {
			return nil, core.NewSchemaError(OpConcatRows, "id column collides with an existing column", opts.IDColumn)
		}
		if opts.AName == "" {
			opts.AName = "a"
		}
		if opts.BName == "" {
			opts.BName = "b"
		}
		cols = append(cols, opts.IDColumn)
	}
	return &ConcatRows{schema: newSchema(cols), a: a, b: b, opts: opts}, nil
}

func (c *ConcatRows) Op() string      { return OpConcatRows }
func (c *ConcatRows) Sources() []Node { return []Node{c.a, c.b} }

// Options returns the id column settings with defaults filled in.
func (c *ConcatRows) Options() ConcatOptions { return c.opts }

func (c *ConcatRows) String() string {
	if c.opts.IDColumn == "" {
		return "ConcatRows()"
	}
	return fmt.Sprintf("ConcatRows(id_column=%s, a_name=%s, b_name=%s)", c.opts.IDColumn, c.opts.AName, c.opts.BName)
}

func (c *ConcatRows) withSources(src []Node) (Node, error) {
	return NewConcatRows(src[0], src[1], c.opts)
}
