package expr

// Operator names with a fixed text shape.
const (
	OpAdd      = "+"
	OpSub      = "-"
	OpMul      = "*"
	OpDiv      = "/"
	OpMod      = "%"
	OpFloorDiv = "//"
	OpEq       = "=="
	OpNe       = "!="
	OpLt       = "<"
	OpLe       = "<="
	OpGt       = ">"
	OpGe       = ">="
	OpAnd      = "and"
	OpOr       = "or"
	OpNeg      = "neg"
	OpNot      = "not"
)

var infix = map[string]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpMod: true, OpFloorDiv: true,
	OpEq: true, OpNe: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
	OpAnd: true, OpOr: true,
}

var reductions = map[string]bool{
	"sum": true, "mean": true, "min": true, "max": true, "count": true, "size": true,
	"nunique": true, "median": true, "any_value": true, "std": true, "var": true,
}

var windowFunctions = map[string]bool{
	"row_number": true, "rank": true, "dense_rank": true, "shift": true,
	"cumsum": true,
}

// IsInfix reports whether op renders between its two arguments.
func IsInfix(op string) bool { return infix[op] }

// IsReduction reports whether op collapses many rows to one value.
func IsReduction(op string) bool { return reductions[op] }

// IsWindowFunction reports whether op requires a window to evaluate.
func IsWindowFunction(op string) bool { return windowFunctions[op] }

func Add(a, b Expr) *Call { return NewCall(OpAdd, a, b) }
func Sub(a, b Expr) *Call { return NewCall(OpSub, a, b) }
func Mul(a, b Expr) *Call { return NewCall(OpMul, a, b) }
func Div(a, b Expr) *Call { return NewCall(OpDiv, a, b) }
func Mod(a, b Expr) *Call { return NewCall(OpMod, a, b) }
func Eq(a, b Expr) *Call { return NewCall(OpEq, a, b) }
func Ne(a, b Expr) *Call { return NewCall(OpNe, a, b) }
func Lt(a, b Expr) *Call { return NewCall(OpLt, a, b) }
func Le(a, b Expr) *Call { return NewCall(OpLe, a, b) }
func Gt(a, b Expr) *Call { return NewCall(OpGt, a, b) }
func Ge(a, b Expr) *Call { return NewCall(OpGe, a, b) }
func And(a, b Expr) *Call { return NewCall(OpAnd, a, b) }
func Or(a, b Expr) *Call { return NewCall(OpOr, a, b) }
func Neg(a Expr) *Call { return NewCall(OpNeg, a) }
func Not(a Expr) *Call { return NewCall(OpNot, a) }

// Fn applies a named function, e.g. Fn("sign", Ref("x")).
func Fn(op string, args ...Expr) *Call { return NewCall(op, args...) }
