// Package frame holds in-memory tables exchanged with databases and
// evaluation engines.
package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/leapalg/pkg/core"
	"github.com/leapstack-labs/leapalg/pkg/expr"
)

// Frame is a table of rows with named columns. Rows[i][j] is the value of
// Columns[j] in row i.
type Frame struct {
	Columns []string
	Rows    [][]any
}

// New builds a frame, checking column names and row widths.
func New(columns []string, rows ...[]any) (*Frame, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == "" {
			return nil, core.NewSchemaError("frame", "empty column name")
		}
		if seen[c] {
			return nil, core.NewSchemaError("frame", "duplicate column", c)
		}
		seen[c] = true
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, core.NewSchemaError("frame", fmt.Sprintf("row %d has %d values, want %d", i, len(r), len(columns)))
		}
	}
	return &Frame{Columns: append([]string(nil), columns...), Rows: rows}, nil
}

// MustNew is New for literals in tests and examples.
func MustNew(columns []string, rows ...[]any) *Frame {
	f, err := New(columns, rows...)
	if err != nil {
		panic(err)
	}
	return f
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return len(f.Rows) }

// ColumnIndex returns the position of a column or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the frame has the named column.
func (f *Frame) HasColumn(name string) bool { return f.ColumnIndex(name) >= 0 }

// Column returns the values of one column.
func (f *Frame) Column(name string) ([]any, bool) {
	j := f.ColumnIndex(name)
	if j < 0 {
		return nil, false
	}
	out := make([]any, len(f.Rows))
	for i, r := range f.Rows {
		out[i] = r[j]
	}
	return out, true
}

// Select returns a frame with the named columns in the given order.
func (f *Frame) Select(columns ...string) (*Frame, error) {
	idx := make([]int, len(columns))
	var missing []string
	for i, c := range columns {
		idx[i] = f.ColumnIndex(c)
		if idx[i] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, core.NewSchemaError("frame", "unknown columns", missing...)
	}
	rows := make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		row := make([]any, len(idx))
		for j, k := range idx {
			row[j] = r[k]
		}
		rows[i] = row
	}
	return New(columns, rows...)
}

// Kinds infers a literal kind per column from its non-null values. Mixed
// integer and float columns are floats; anything else mixed is a string.
func (f *Frame) Kinds() []expr.Kind {
	kinds := make([]expr.Kind, len(f.Columns))
	for j := range f.Columns {
		k := expr.KindNull
		for _, r := range f.Rows {
			vk := KindOf(r[j])
			switch {
			case vk == expr.KindNull || vk == k:
			case k == expr.KindNull:
				k = vk
			case (k == expr.KindInt && vk == expr.KindFloat) || (k == expr.KindFloat && vk == expr.KindInt):
				k = expr.KindFloat
			default:
				k = expr.KindString
			}
		}
		kinds[j] = k
	}
	return kinds
}

// KindOf classifies a single value.
func KindOf(v any) expr.Kind {
	switch v := v.(type) {
	case nil:
		return expr.KindNull
	case bool:
		return expr.KindBool
	case int, int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return expr.KindInt
	case float32:
		return expr.KindFloat
	case float64:
		if math.IsNaN(v) {
			return expr.KindNull
		}
		return expr.KindFloat
	case decimal.Decimal:
		return expr.KindDecimal
	default:
		return expr.KindString
	}
}

// Normalize converts driver values to the types frames carry: byte slices
// become strings and times are formatted as RFC 3339.
func Normalize(v any) any {
	switch v := v.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	}
	return v
}
