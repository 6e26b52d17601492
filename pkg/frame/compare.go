package frame

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// CompareOptions relaxes Equivalent.
type CompareOptions struct {
	IgnoreColumnOrder bool
	IgnoreRowOrder    bool
	// FloatTolerance is the largest absolute or relative difference at
	// which two numbers still count as equal.
	FloatTolerance float64
}

// DefaultCompare matches columns by name and rows as multisets.
var DefaultCompare = CompareOptions{IgnoreColumnOrder: true, IgnoreRowOrder: true, FloatTolerance: 1e-9}

// Equivalent returns nil when a and b hold the same data, or an error
// describing the first difference. Numbers compare by value across
// integer, float, decimal and numeric-string representations.
func Equivalent(a, b *Frame, opts CompareOptions) error {
	if a == nil || b == nil {
		if a == b {
			return nil
		}
		return fmt.Errorf("one frame is nil")
	}
	if len(a.Columns) != len(b.Columns) {
		return fmt.Errorf("column count differs: %v vs %v", a.Columns, b.Columns)
	}
	if opts.IgnoreColumnOrder {
		bb, err := b.Select(a.Columns...)
		if err != nil {
			return fmt.Errorf("column sets differ: %v vs %v", a.Columns, b.Columns)
		}
		b = bb
	} else {
		for i := range a.Columns {
			if a.Columns[i] != b.Columns[i] {
				return fmt.Errorf("column %d differs: %q vs %q", i, a.Columns[i], b.Columns[i])
			}
		}
	}
	if a.NumRows() != b.NumRows() {
		return fmt.Errorf("row count differs: %d vs %d", a.NumRows(), b.NumRows())
	}
	ar, br := a.Rows, b.Rows
	if opts.IgnoreRowOrder {
		ar, br = sortedRows(ar), sortedRows(br)
	}
	for i := range ar {
		for j, col := range a.Columns {
			if !ValuesEqual(ar[i][j], br[i][j], opts.FloatTolerance) {
				return fmt.Errorf("row %d column %q differs: %v vs %v", i, col, ar[i][j], br[i][j])
			}
		}
	}
	return nil
}

// ValuesEqual compares two cell values.
func ValuesEqual(a, b any, tol float64) bool {
	a, b = Normalize(a), Normalize(b)
	if isNull(a) || isNull(b) {
		return isNull(a) && isNull(b)
	}
	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		return closeEnough(fa, fb, tol)
	}
	sa, errA := cast.ToStringE(a)
	sb, errB := cast.ToStringE(b)
	if errA != nil || errB != nil {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return sa == sb
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	f, ok := v.(float64)
	return ok && math.IsNaN(f)
}

// number converts numeric values, including numeric strings such as the
// text some drivers return for DECIMAL columns. Booleans count as 0 and 1
// since several databases store them as integers.
func number(v any) (float64, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v.InexactFloat64(), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

func closeEnough(a, b, tol float64) bool {
	if a == b {
		return true
	}
	d := math.Abs(a - b)
	if d <= tol {
		return true
	}
	return d <= tol*math.Max(math.Abs(a), math.Abs(b))
}

// sortedRows orders rows by a canonical key so multisets line up. The
// order itself carries no meaning.
func sortedRows(rows [][]any) [][]any {
	type keyed struct {
		key string
		row []any
	}
	ks := make([]keyed, len(rows))
	for i, r := range rows {
		parts := make([]string, len(r))
		for j, v := range r {
			parts[j] = sortKey(v)
		}
		ks[i] = keyed{key: strings.Join(parts, "\x1f"), row: r}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].key < ks[j].key })
	out := make([][]any, len(rows))
	for i, k := range ks {
		out[i] = k.row
	}
	return out
}

func sortKey(v any) string {
	v = Normalize(v)
	if isNull(v) {
		return "\x00"
	}
	if f, ok := number(v); ok {
		if f == 0 {
			f = 0 // folds -0
		}
		return "1" + strconv.FormatFloat(f, 'e', 8, 64)
	}
	return "2" + fmt.Sprint(v)
}
