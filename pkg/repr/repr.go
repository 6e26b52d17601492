// Package repr converts pipelines to and from an ordered, string-keyed
// representation that encodes as YAML or JSON.
//
// A Pipeline is a list of steps. The first step is a leaf (Table or SQLNode)
// and each later step consumes the one before it. Every step is a Map whose
// "op" key names the operator; joins and concatenations carry their second
// source as a nested pipeline under "b".
//
//	- op: Table
//	  name: d
//	  columns: [x, y]
//	- op: Extend
//	  ops:
//	    z: x + y
//	- op: SelectRows
//	  expr: z > 0
package repr

import (
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
	"github.com/leapstack-labs/leapalg/pkg/ops"
)

// KeyOp is the discriminator key of every step.
const KeyOp = "op"

// Pipeline is the structured form of a pipeline.
type Pipeline []*Map

// ToRepr converts root into its structured form.
func ToRepr(root ops.Node) (Pipeline, error) {
	if root == nil {
		return nil, core.NewSchemaError("", "nil pipeline")
	}
	if _, err := ops.Leaves(root); err != nil {
		return nil, err
	}
	var chain []ops.Node
	for n := root; n != nil; {
		chain = append(chain, n)
		src := n.Sources()
		if len(src) == 0 {
			break
		}
		n = src[0]
	}

	p := make(Pipeline, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		step, err := encodeStep(chain[i])
		if err != nil {
			return nil, err
		}
		p = append(p, step)
	}
	return p, nil
}

func encodeStep(n ops.Node) (*Map, error) {
	m := NewMap().Set(KeyOp, n.Op())
	switch x := n.(type) {
	case *ops.Table:
		m.Set("name", x.Name())
		if q := x.Qualifiers(); len(q) > 0 {
			m.Set("qualifiers", sortedStrings(q))
		}
		m.Set("columns", stringList(x.ColumnNames()))
		if x.Temporary() {
			m.Set("temporary", true)
		}
	case *ops.SQLNode:
		m.Set("view_name", x.ViewName())
		m.Set("sql", x.Text())
		m.Set("columns", stringList(x.ColumnNames()))
	case *ops.Extend:
		m.Set("ops", assignments(x.Assignments()))
		w := x.Window()
		setList(m, "partition_by", w.PartitionBy)
		setList(m, "order_by", w.OrderBy)
		setList(m, "reverse", w.Reverse)
	case *ops.Project:
		m.Set("ops", assignments(x.Assignments()))
		setList(m, "group_by", x.GroupBy())
	case *ops.SelectRows:
		m.Set("expr", encodeExpr(x.Predicate()))
	case *ops.SelectColumns:
		m.Set("columns", stringList(x.ColumnNames()))
	case *ops.Rename:
		m.Set("mapping", sortedStrings(x.Mapping()))
	case *ops.OrderRows:
		m.Set("order_by", stringList(x.OrderBy()))
		setList(m, "reverse", x.Reverse())
		if x.Limit() > 0 {
			m.Set("limit", int64(x.Limit()))
		}
	case *ops.NaturalJoin:
		m.Set("by", stringList(x.By()))
		m.Set("jointype", string(x.Kind()))
		b, err := ToRepr(x.Right())
		if err != nil {
			return nil, err
		}
		m.Set("b", b.list())
	case *ops.ConcatRows:
		o := x.Options()
		if o.IDColumn != "" {
			m.Set("id_column", o.IDColumn)
			m.Set("a_name", o.AName)
			m.Set("b_name", o.BName)
		}
		b, err := ToRepr(x.Sources()[1])
		if err != nil {
			return nil, err
		}
		m.Set("b", b.list())
	default:
		return nil, fmt.Errorf("repr: unsupported node %s", n.Op())
	}
	return m, nil
}

func (p Pipeline) list() []any {
	out := make([]any, len(p))
	for i, s := range p {
		out[i] = s
	}
	return out
}

func stringList(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func setList(m *Map, key string, s []string) {
	if len(s) > 0 {
		m.Set(key, stringList(s))
	}
}

func sortedStrings(kv map[string]string) *Map {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := NewMap()
	for _, k := range keys {
		m.Set(k, kv[k])
	}
	return m
}

func assignments(assigns []ops.Assignment) *Map {
	m := NewMap()
	for _, a := range assigns {
		m.Set(a.Column, encodeExpr(a.Expr))
	}
	return m
}

// step parameters decoded with mapstructure; ordered values (ops, b) are
// read from the Map directly.
type stepParams struct {
	Op          string            `mapstructure:"op"`
	Name        string            `mapstructure:"name"`
	Qualifiers  map[string]string `mapstructure:"qualifiers"`
	Columns     []string          `mapstructure:"columns"`
	Temporary   bool              `mapstructure:"temporary"`
	ViewName    string            `mapstructure:"view_name"`
	SQL         string            `mapstructure:"sql"`
	Ops         any               `mapstructure:"ops"`
	PartitionBy []string          `mapstructure:"partition_by"`
	OrderBy     []string          `mapstructure:"order_by"`
	Reverse     []string          `mapstructure:"reverse"`
	GroupBy     []string          `mapstructure:"group_by"`
	Expr        any               `mapstructure:"expr"`
	Mapping     map[string]string `mapstructure:"mapping"`
	Limit       int               `mapstructure:"limit"`
	By          []string          `mapstructure:"by"`
	JoinType    string            `mapstructure:"jointype"`
	B           any               `mapstructure:"b"`
	IDColumn    string            `mapstructure:"id_column"`
	AName       string            `mapstructure:"a_name"`
	BName       string            `mapstructure:"b_name"`
}

var allowedKeys = map[string][]string{
	ops.OpTable:         {"name", "qualifiers", "columns", "temporary"},
	ops.OpSQL:           {"view_name", "sql", "columns"},
	ops.OpExtend:        {"ops", "partition_by", "order_by", "reverse"},
	ops.OpProject:       {"ops", "group_by"},
	ops.OpSelectRows:    {"expr"},
	ops.OpSelectColumns: {"columns"},
	ops.OpRename:        {"mapping"},
	ops.OpOrderRows:     {"order_by", "reverse", "limit"},
	ops.OpNaturalJoin:   {"by", "jointype", "b"},
	ops.OpConcatRows:    {"id_column", "a_name", "b_name", "b"},
}

// FromRepr rebuilds a pipeline from its structured form. Every step is
// validated as it is constructed.
func FromRepr(p Pipeline) (ops.Node, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("repr: empty pipeline")
	}
	var node ops.Node
	for i, step := range p {
		if step == nil {
			return nil, fmt.Errorf("repr: step %d is empty", i)
		}
		params, err := decodeParams(step)
		if err != nil {
			return nil, fmt.Errorf("repr: step %d: %w", i, err)
		}
		isLeaf := params.Op == ops.OpTable || params.Op == ops.OpSQL
		if (i == 0) != isLeaf {
			if i == 0 {
				return nil, fmt.Errorf("repr: step 0: pipeline must start with %s or %s, got %s", ops.OpTable, ops.OpSQL, params.Op)
			}
			return nil, fmt.Errorf("repr: step %d: %s can only start a pipeline", i, params.Op)
		}
		node, err = decodeStep(node, step, params)
		if err != nil {
			return nil, fmt.Errorf("repr: step %d (%s): %w", i, params.Op, err)
		}
	}
	if _, err := ops.Leaves(node); err != nil {
		return nil, err
	}
	return node, nil
}

func decodeParams(step *Map) (*stepParams, error) {
	opValue, ok := step.Get(KeyOp)
	if !ok {
		return nil, fmt.Errorf("missing %q", KeyOp)
	}
	op, ok := opValue.(string)
	if !ok {
		return nil, fmt.Errorf("%q must be a string", KeyOp)
	}
	allowed, ok := allowedKeys[op]
	if !ok {
		return nil, fmt.Errorf("unknown op %q", op)
	}
	known := map[string]bool{KeyOp: true}
	for _, k := range allowed {
		known[k] = true
	}
	for _, k := range step.Keys() {
		if !known[k] {
			return nil, fmt.Errorf("%s does not take %q", op, k)
		}
	}

	var params stepParams
	if err := mapstructure.Decode(step.Plain(), &params); err != nil {
		return nil, err
	}
	return &params, nil
}

func decodeStep(src ops.Node, step *Map, p *stepParams) (ops.Node, error) {
	switch p.Op {
	case ops.OpTable:
		if p.Temporary {
			if len(p.Qualifiers) > 0 {
				return nil, fmt.Errorf("temporary table cannot be qualified")
			}
			return built(ops.NewTempTable(p.Name, p.Columns))
		}
		return built(ops.NewTable(p.Name, p.Columns, p.Qualifiers))
	case ops.OpSQL:
		return built(ops.NewSQLNode(p.SQL, p.Columns, p.ViewName))
	case ops.OpExtend:
		assigns, err := decodeAssignments(step, src)
		if err != nil {
			return nil, err
		}
		w := ops.Window{PartitionBy: p.PartitionBy, OrderBy: p.OrderBy, Reverse: p.Reverse}
		return built(ops.NewExtend(src, assigns, w))
	case ops.OpProject:
		assigns, err := decodeAssignments(step, src)
		if err != nil {
			return nil, err
		}
		return built(ops.NewProject(src, assigns, p.GroupBy))
	case ops.OpSelectRows:
		raw, _ := step.Get("expr")
		e, err := decodeExpr(raw, src)
		if err != nil {
			return nil, err
		}
		return built(ops.NewSelectRows(src, e))
	case ops.OpSelectColumns:
		return built(ops.NewSelectColumns(src, p.Columns))
	case ops.OpRename:
		return built(ops.NewRename(src, p.Mapping))
	case ops.OpOrderRows:
		return built(ops.NewOrderRows(src, p.OrderBy, p.Reverse, p.Limit))
	case ops.OpNaturalJoin, ops.OpConcatRows:
		b, err := decodeNested(step)
		if err != nil {
			return nil, err
		}
		if p.Op == ops.OpConcatRows {
			return built(ops.NewConcatRows(src, b, ops.ConcatOptions{IDColumn: p.IDColumn, AName: p.AName, BName: p.BName}))
		}
		kind, ok := core.ParseJoinKind(p.JoinType)
		if !ok {
			return nil, fmt.Errorf("unknown join type %q", p.JoinType)
		}
		return built(ops.NewNaturalJoin(src, b, p.By, kind))
	}
	return nil, fmt.Errorf("unknown op %q", p.Op)
}

func built[T ops.Node](n T, err error) (ops.Node, error) {
	if err != nil {
		return nil, err
	}
	return n, nil
}

func decodeAssignments(step *Map, src expr.Scope) ([]ops.Assignment, error) {
	raw, _ := step.Get("ops")
	m, ok := raw.(*Map)
	if !ok {
		return nil, fmt.Errorf("ops must be a mapping of column to expression")
	}
	assigns := make([]ops.Assignment, 0, m.Len())
	for _, col := range m.Keys() {
		v, _ := m.Get(col)
		e, err := decodeExpr(v, src)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		assigns = append(assigns, ops.A(col, e))
	}
	return assigns, nil
}

func decodeNested(step *Map) (ops.Node, error) {
	raw, ok := step.Get("b")
	if !ok {
		return nil, fmt.Errorf("missing second source %q", "b")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("b must be a list of steps")
	}
	p := make(Pipeline, len(list))
	for i, s := range list {
		m, ok := s.(*Map)
		if !ok {
			return nil, fmt.Errorf("b: step %d must be a mapping", i)
		}
		p[i] = m
	}
	return FromRepr(p)
}
