package dialect

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// Formatter renders an operator call from its already rendered arguments.
type Formatter func(args []string) (string, error)

// Infix renders a binary operator between its arguments.
func Infix(sqlOp string) Formatter {
	return func(args []string) (string, error) {
		if len(args) != 2 {
			return "", arityError(2, len(args))
		}
		return args[0] + " " + sqlOp + " " + args[1], nil
	}
}

// Prefix renders a unary operator before its argument.
func Prefix(sqlOp string) Formatter {
	return func(args []string) (string, error) {
		if len(args) != 1 {
			return "", arityError(1, len(args))
		}
		return sqlOp + args[0], nil
	}
}

// Func renders a function call. A negative arity accepts any argument count.
func Func(name string, arity int) Formatter {
	return func(args []string) (string, error) {
		if arity >= 0 && len(args) != arity {
			return "", arityError(arity, len(args))
		}
		return name + "(" + strings.Join(args, ", ") + ")", nil
	}
}

// Template renders a fixed-arity call through fn.
func Template(arity int, fn func(a []string) string) Formatter {
	return func(args []string) (string, error) {
		if len(args) != arity {
			return "", arityError(arity, len(args))
		}
		return fn(args), nil
	}
}

func arityError(want, got int) error {
	return fmt.Errorf("expects %d arguments, got %d", want, got)
}

var defaultFormatters = map[string]Formatter{
	expr.OpAdd:      Infix("+"),
	expr.OpSub:      Infix("-"),
	expr.OpMul:      Infix("*"),
	expr.OpDiv:      Infix("/"),
	expr.OpMod:      Infix("%"),
	expr.OpFloorDiv: Template(2, func(a []string) string { return "FLOOR(" + a[0] + " / " + a[1] + ")" }),
	expr.OpEq:       Infix("="),
	expr.OpNe:       Infix("<>"),
	expr.OpLt:       Infix("<"),
	expr.OpLe:       Infix("<="),
	expr.OpGt:       Infix(">"),
	expr.OpGe:       Infix(">="),
	expr.OpAnd:      Infix("AND"),
	expr.OpOr:       Infix("OR"),
	expr.OpNeg:      Prefix("-"),
	expr.OpNot:      Prefix("NOT "),

	"sum":       Func("SUM", 1),
	"mean":      Func("AVG", 1),
	"min":       Func("MIN", 1),
	"max":       Func("MAX", 1),
	"count":     Func("COUNT", 1),
	"size":      Template(0, func([]string) string { return "COUNT(1)" }),
	"nunique":   Template(1, func(a []string) string { return "COUNT(DISTINCT " + a[0] + ")" }),
	"median":    Func("MEDIAN", 1),
	"any_value": Func("ANY_VALUE", 1),
	"std":       Func("STDDEV", 1),
	"var":       Func("VARIANCE", 1),

	"row_number": Func("ROW_NUMBER", 0),
	"rank":       Func("RANK", 0),
	"dense_rank": Func("DENSE_RANK", 0),
	"cumsum":     Func("SUM", 1),
	"shift": func(a []string) (string, error) {
		if len(a) != 1 && len(a) != 2 {
			return "", fmt.Errorf("expects 1 or 2 arguments, got %d", len(a))
		}
		return "LAG(" + strings.Join(a, ", ") + ")", nil
	},

	"sign":     Func("SIGN", 1),
	"abs":      Func("ABS", 1),
	"mod":      Func("MOD", 2),
	"pow":      Func("POWER", 2),
	"coalesce": Func("COALESCE", -1),
	"is_null":  Template(1, func(a []string) string { return a[0] + " IS NULL" }),
	"if_else": Template(3, func(a []string) string {
		return "CASE WHEN " + a[0] + " THEN " + a[1] + " ELSE " + a[2] + " END"
	}),
	"concat": func(a []string) (string, error) {
		if len(a) < 2 {
			return "", fmt.Errorf("expects at least 2 arguments, got %d", len(a))
		}
		return strings.Join(a, " || "), nil
	},
	"trimstr": Template(3, func(a []string) string {
		return "SUBSTR(" + a[0] + ", (" + a[1] + ") + 1, (" + a[2] + ") - (" + a[1] + "))"
	}),
	"as_int64": Template(1, func(a []string) string { return "CAST(" + a[0] + " AS BIGINT)" }),
	"as_str":   Template(1, func(a []string) string { return "CAST(" + a[0] + " AS VARCHAR)" }),
}

// operatorShaped lists default renderings whose arguments sit next to
// operators and so need parentheses around compound operands.
var operatorShaped = map[string]bool{
	expr.OpAdd: true, expr.OpSub: true, expr.OpMul: true, expr.OpDiv: true, expr.OpMod: true,
	expr.OpEq: true, expr.OpNe: true, expr.OpLt: true, expr.OpLe: true, expr.OpGt: true, expr.OpGe: true,
	expr.OpAnd: true, expr.OpOr: true, expr.OpNeg: true, expr.OpNot: true,
	"is_null": true, "concat": true,
}

// Formatter returns the renderer for op: the dialect override if any, else
// the shared default, else a plain upper-cased function call.
func (d *Dialect) Formatter(op string) Formatter {
	if f, ok := d.formatters[op]; ok {
		return f
	}
	if f, ok := defaultFormatters[op]; ok {
		return f
	}
	return Func(strings.ToUpper(op), -1)
}

// IsSupported reports whether the dialect can render op.
func (d *Dialect) IsSupported(op string) bool {
	_, no := d.unsupported[op]
	return !no
}

// atomic reports whether op renders as a self-delimited term.
func (d *Dialect) atomic(op string) bool {
	if _, ok := d.formatters[op]; ok {
		return false
	}
	return !operatorShaped[op]
}

// FormatExpr renders an expression as SQL.
func (d *Dialect) FormatExpr(e expr.Expr) (string, error) {
	return d.format(e, nil)
}

// FormatWindowExpr renders an expression evaluated over a window. Every
// reduction and window function gets an OVER clause with the given body,
// which may be empty.
func (d *Dialect) FormatWindowExpr(e expr.Expr, over string) (string, error) {
	return d.format(e, &over)
}

func (d *Dialect) format(e expr.Expr, over *string) (string, error) {
	switch e := e.(type) {
	case *expr.Literal:
		return d.QuoteLiteral(e), nil
	case *expr.ColumnRef:
		return d.QuoteIdentifier(e.Name())
	case *expr.Call:
		return d.formatCall(e, over)
	}
	return "", fmt.Errorf("unknown expression type %T", e)
}

func (d *Dialect) formatCall(c *expr.Call, over *string) (string, error) {
	op := c.Op()
	if !d.IsSupported(op) {
		return "", d.errorf(op, "unsupported operator")
	}
	windowed := over != nil && (c.IsReduction() || c.IsWindowFunction())
	if windowed {
		if _, no := d.noWindow[op]; no {
			return "", d.errorf(op, "not supported over a window")
		}
	}
	childOver := over
	if windowed {
		childOver = nil
	}
	parentShaped := !d.atomic(op)
	args := make([]string, c.NumArgs())
	for i := range args {
		a := c.Arg(i)
		s, err := d.format(a, childOver)
		if err != nil {
			return "", err
		}
		if parentShaped && needsParens(d, a, s) {
			s = "(" + s + ")"
		}
		args[i] = s
	}
	out, err := d.Formatter(op)(args)
	if err != nil {
		return "", d.errorf(op, err.Error())
	}
	if windowed {
		out += " OVER (" + *over + ")"
	}
	return out, nil
}

func needsParens(d *Dialect, arg expr.Expr, rendered string) bool {
	if strings.HasPrefix(rendered, "-") {
		return true
	}
	c, ok := arg.(*expr.Call)
	return ok && !d.atomic(c.Op())
}
