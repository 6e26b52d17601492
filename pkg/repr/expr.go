package repr

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/leapstack-labs/leapalg/pkg/expr"
	"github.com/leapstack-labs/leapalg/pkg/exprparse"
)

// Expression keys of the structural form.
const (
	keyCol  = "col"
	keyLit  = "lit"
	keyKind = "kind"
	keyCall = "call"
	keyArgs = "args"
)

// encodeExpr returns the canonical text of e when that text parses back to
// the same tree, and the structural form otherwise.
func encodeExpr(e expr.Expr) any {
	text := e.String()
	if back, err := exprparse.ParseColumns(text, e.Columns()); err == nil && expr.Equal(back, e) {
		return text
	}
	return structural(e)
}

func structural(e expr.Expr) *Map {
	switch x := e.(type) {
	case *expr.ColumnRef:
		return NewMap().Set(keyCol, x.Name())
	case *expr.Literal:
		v := x.Value()
		if d, ok := v.(decimal.Decimal); ok {
			v = d.String()
		}
		return NewMap().Set(keyLit, v).Set(keyKind, x.Kind().String())
	case *expr.Call:
		args := make([]any, x.NumArgs())
		for i := range args {
			args[i] = structural(x.Arg(i))
		}
		return NewMap().Set(keyCall, x.Op()).Set(keyArgs, args)
	}
	panic(fmt.Sprintf("repr: unexpected expression %T", e))
}

// decodeExpr accepts expression text, resolved against scope, or the
// structural form.
func decodeExpr(v any, scope expr.Scope) (expr.Expr, error) {
	switch x := v.(type) {
	case string:
		return exprparse.Parse(x, exprparse.Env{Columns: scope})
	case *Map:
		return decodeStructural(x)
	}
	return nil, fmt.Errorf("expression must be text or a mapping, got %T", v)
}

func decodeStructural(m *Map) (expr.Expr, error) {
	if name, ok := m.Get(keyCol); ok {
		s, err := cast.ToStringE(name)
		if err != nil {
			return nil, fmt.Errorf("column reference: %w", err)
		}
		return expr.Ref(s), nil
	}
	if v, ok := m.Get(keyLit); ok {
		kindName, _ := m.Get(keyKind)
		return decodeLiteral(v, cast.ToString(kindName))
	}
	if op, ok := m.Get(keyCall); ok {
		raw, _ := m.Get(keyArgs)
		list, ok := raw.([]any)
		if raw != nil && !ok {
			return nil, fmt.Errorf("call %v: args must be a list", op)
		}
		args := make([]expr.Expr, len(list))
		for i, a := range list {
			am, ok := a.(*Map)
			if !ok {
				return nil, fmt.Errorf("call %v: argument %d must be a mapping", op, i)
			}
			e, err := decodeStructural(am)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return expr.NewCall(cast.ToString(op), args...), nil
	}
	return nil, fmt.Errorf("expression mapping needs one of %q, %q or %q", keyCol, keyLit, keyCall)
}

func decodeLiteral(v any, kindName string) (expr.Expr, error) {
	if kindName == "" {
		return expr.NewLiteral(v)
	}
	kind, ok := expr.ParseKind(kindName)
	if !ok {
		return nil, fmt.Errorf("unknown literal kind %q", kindName)
	}
	switch kind {
	case expr.KindNull:
		return expr.Null(), nil
	case expr.KindBool:
		b, err := cast.ToBoolE(v)
		return expr.Bool(b), err
	case expr.KindInt:
		i, err := cast.ToInt64E(v)
		return expr.Int(i), err
	case expr.KindFloat:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		return expr.NewLiteral(f)
	case expr.KindDecimal:
		d, err := decimal.NewFromString(cast.ToString(v))
		return expr.Dec(d), err
	}
	s, err := cast.ToStringE(v)
	return expr.Str(s), err
}
