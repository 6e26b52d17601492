package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind classifies literal values.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDecimal
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "decimal"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return KindNull, false
}

// Literal is a constant value.
type Literal struct {
	kind Kind
	v    any
}

// NewLiteral converts a Go value into a literal. Integers of every width become
// int64, floats become float64.
func NewLiteral(v any) (*Literal, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case *Literal:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return nil, fmt.Errorf("integer literal %d out of range", x)
		}
		return Int(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("integer literal %d out of range", x)
		}
		return Int(int64(x)), nil
	case float32:
		return floatLiteral(float64(x))
	case float64:
		return floatLiteral(x)
	case string:
		return Str(x), nil
	case decimal.Decimal:
		return Dec(x), nil
	case *decimal.Decimal:
		if x == nil {
			return Null(), nil
		}
		return Dec(*x), nil
	}
	return nil, fmt.Errorf("unsupported literal type %T", v)
}

func floatLiteral(f float64) (*Literal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite float literal %v", f)
	}
	return Float(f), nil
}

func Null() *Literal { return &Literal{kind: KindNull} }
func Bool(b bool) *Literal { return &Literal{kind: KindBool, v: b} }
func Int(i int64) *Literal { return &Literal{kind: KindInt, v: i} }
func Float(f float64) *Literal { return &Literal{kind: KindFloat, v: f} }
func Str(s string) *Literal { return &Literal{kind: KindString, v: s} }
func Dec(d decimal.Decimal) *Literal { return &Literal{kind: KindDecimal, v: d} }

// Kind returns the value kind.
func (l *Literal) Kind() Kind { return l.kind }

// Value returns the Go value: nil, bool, int64, float64, string or decimal.Decimal.
func (l *Literal) Value() any { return l.v }

func (l *Literal) Columns() []string { return nil }

func (l *Literal) collect(map[string]struct{}) {}

func (l *Literal) String() string {
	switch l.kind {
	case KindNull:
		return "None"
	case KindBool:
		if l.v.(bool) {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(l.v.(int64), 10)
	case KindFloat:
		return FormatFloat(l.v.(float64))
	case KindString:
		return strconv.Quote(l.v.(string))
	case KindDecimal:
		return l.v.(decimal.Decimal).String()
	}
	return "?"
}

// Equal compares kind and value.
func (l *Literal) Equal(o *Literal) bool {
	if o == nil || l.kind != o.kind {
		return false
	}
	if l.kind == KindDecimal {
		return l.v.(decimal.Decimal).Equal(o.v.(decimal.Decimal))
	}
	return l.v == o.v
}

// FormatFloat renders f so that it always reads back as a float.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
