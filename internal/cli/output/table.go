package output

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapalg/pkg/frame"
)

// Table renders a frame as a table in the current mode. JSON mode writes
// an array of objects keyed by column name.
func (r *Renderer) Table(f *frame.Frame) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.JSON(FrameRecords(f))
	case ModeMarkdown:
		r.Println(renderFrame(f, true))
	default:
		r.Println(renderFrame(f, false))
	}
	r.Muted(rowCount(f.NumRows()))
	return nil
}

// List renders rows of plain strings under a header.
func (r *Renderer) List(header []string, rows [][]string) {
	t := table.NewWriter()
	t.AppendHeader(toRow(header))
	for _, row := range rows {
		t.AppendRow(toRow(row))
	}
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(t.RenderMarkdown())
		return
	}
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
}

func renderFrame(f *frame.Frame, markdown bool) string {
	t := table.NewWriter()
	t.AppendHeader(toRow(f.Columns))
	for _, row := range f.Rows {
		cells := make(table.Row, len(row))
		for i, v := range row {
			cells[i] = frame.FormatValue(v)
		}
		t.AppendRow(cells)
	}
	if markdown {
		return t.RenderMarkdown()
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}

func toRow(values []string) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}

// FrameRecords converts a frame into one map per row for JSON output.
// Values are normalized the way frames compare them; NaN becomes null.
func FrameRecords(f *frame.Frame) []map[string]any {
	out := make([]map[string]any, len(f.Rows))
	for i, row := range f.Rows {
		rec := make(map[string]any, len(f.Columns))
		for j, c := range f.Columns {
			v := frame.Normalize(row[j])
			if fv, ok := v.(float64); ok && math.IsNaN(fv) {
				v = nil
			}
			rec[c] = v
		}
		out[i] = rec
	}
	return out
}
