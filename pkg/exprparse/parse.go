// Package exprparse turns expression text such as "x.sign() == 1" into
// expr trees.
//
// The grammar is the expression subset of Starlark: infix arithmetic and
// comparison, and/or/not, unary minus, method-style calls (x.max()),
// function-style calls (coalesce(a, b)) and conditional expressions
// (a if c else b). Bare names resolve against an explicit Env, never against
// ambient state.
package exprparse

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
	"go.starlark.net/syntax"
)

// Env is the name-resolution context for a parse.
type Env struct {
	// Columns lists the names that resolve to column references.
	Columns expr.Scope
	// Values binds names to constants. Constants shadow columns.
	Values map[string]any
}

var binaryOps = map[syntax.Token]string{
	syntax.PLUS:       expr.OpAdd,
	syntax.MINUS:      expr.OpSub,
	syntax.STAR:       expr.OpMul,
	syntax.SLASH:      expr.OpDiv,
	syntax.SLASHSLASH: expr.OpFloorDiv,
	syntax.PERCENT:    expr.OpMod,
	syntax.EQL:        expr.OpEq,
	syntax.NEQ:        expr.OpNe,
	syntax.LT:         expr.OpLt,
	syntax.LE:         expr.OpLe,
	syntax.GT:         expr.OpGt,
	syntax.GE:         expr.OpGe,
	syntax.AND:        expr.OpAnd,
	syntax.OR:         expr.OpOr,
	syntax.AMP:        expr.OpAnd,
	syntax.PIPE:       expr.OpOr,
}

// Parse parses src and resolves its names in env.
func Parse(src string, env Env) (expr.Expr, error) {
	if env.Columns == nil {
		env.Columns = expr.ColumnSet{}
	}
	tree, err := (&syntax.FileOptions{}).ParseExpr("expr", src, 0)
	if err != nil {
		return nil, fmt.Errorf("parse expression %q: %w", src, err)
	}
	p := &parser{env: env, src: src}
	return p.convert(tree)
}

// ParseColumns is Parse with only column names in scope.
func ParseColumns(src string, columns []string) (expr.Expr, error) {
	return Parse(src, Env{Columns: expr.NewColumnSet(columns...)})
}

type parser struct {
	env Env
	src string
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("parse expression %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *parser) convert(n syntax.Expr) (expr.Expr, error) {
	switch n := n.(type) {
	case *syntax.ParenExpr:
		return p.convert(n.X)
	case *syntax.Ident:
		return p.ident(n.Name)
	case *syntax.Literal:
		return p.literal(n)
	case *syntax.UnaryExpr:
		return p.unary(n)
	case *syntax.BinaryExpr:
		return p.binary(n)
	case *syntax.CallExpr:
		return p.call(n)
	case *syntax.CondExpr:
		args, err := p.convertAll([]syntax.Expr{n.Cond, n.True, n.False})
		if err != nil {
			return nil, err
		}
		return expr.Fn("if_else", args...), nil
	case *syntax.DotExpr:
		return nil, p.errorf("attribute %q must be called", n.Name.Name)
	}
	return nil, p.errorf("unsupported expression %T", n)
}

func (p *parser) convertAll(nodes []syntax.Expr) ([]expr.Expr, error) {
	out := make([]expr.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := p.convert(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (p *parser) ident(name string) (expr.Expr, error) {
	if v, ok := p.env.Values[name]; ok {
		return expr.NewLiteral(v)
	}
	switch name {
	case "True":
		return expr.Bool(true), nil
	case "False":
		return expr.Bool(false), nil
	case "None":
		return expr.Null(), nil
	}
	if !p.env.Columns.HasColumn(name) {
		return nil, core.NewSchemaError("expression", "unknown column", name)
	}
	return expr.Ref(name), nil
}

func (p *parser) literal(n *syntax.Literal) (expr.Expr, error) {
	switch v := n.Value.(type) {
	case string:
		if n.Token == syntax.BYTES {
			return nil, p.errorf("bytes literals are not supported")
		}
		return expr.Str(v), nil
	case int64:
		return expr.Int(v), nil
	case *big.Int:
		return nil, p.errorf("integer literal %s out of range", n.Raw)
	case float64:
		return expr.Float(v), nil
	}
	return nil, p.errorf("unsupported literal %s", n.Raw)
}

func (p *parser) unary(n *syntax.UnaryExpr) (expr.Expr, error) {
	x, err := p.convert(n.X)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case syntax.PLUS:
		return x, nil
	case syntax.MINUS:
		if lit, ok := x.(*expr.Literal); ok {
			switch v := lit.Value().(type) {
			case int64:
				return expr.Int(-v), nil
			case float64:
				return expr.Float(-v), nil
			}
		}
		return expr.Neg(x), nil
	case syntax.NOT, syntax.TILDE:
		return expr.Not(x), nil
	}
	return nil, p.errorf("unsupported unary operator %s", n.Op)
}

func (p *parser) binary(n *syntax.BinaryExpr) (expr.Expr, error) {
	args, err := p.convertAll([]syntax.Expr{n.X, n.Y})
	if err != nil {
		return nil, err
	}
	if n.Op == syntax.STARSTAR {
		return expr.Fn("pow", args...), nil
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		return nil, p.errorf("unsupported operator %s", n.Op)
	}
	return expr.NewCall(op, args...), nil
}

func (p *parser) call(n *syntax.CallExpr) (expr.Expr, error) {
	for _, a := range n.Args {
		if b, ok := a.(*syntax.BinaryExpr); ok && b.Op == syntax.EQ {
			return nil, p.errorf("keyword arguments are not supported")
		}
		if u, ok := a.(*syntax.UnaryExpr); ok && (u.Op == syntax.STAR || u.Op == syntax.STARSTAR) {
			return nil, p.errorf("argument unpacking is not supported")
		}
	}
	args, err := p.convertAll(n.Args)
	if err != nil {
		return nil, err
	}
	switch fn := n.Fn.(type) {
	case *syntax.Ident:
		return expr.Fn(funcName(fn.Name), args...), nil
	case *syntax.DotExpr:
		recv, err := p.convert(fn.X)
		if err != nil {
			return nil, err
		}
		return expr.Fn(funcName(fn.Name.Name), append([]expr.Expr{recv}, args...)...), nil
	}
	return nil, p.errorf("unsupported call target %T", n.Fn)
}

// funcName accepts the underscore-prefixed spelling of zero-argument
// functions such as _row_number().
func funcName(name string) string {
	return strings.TrimPrefix(name, "_")
}
