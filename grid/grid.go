package grid

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Viewport decides which slice of an arbitrarily large row set is visible.
// Keeping it an interface detaches the renderer from any particular scrolling
// surface; tests drive it with a fixed window.
type Viewport interface {
	// VisibleRange returns the first visible row index and how many rows are
	// visible, given the total row count.
	VisibleRange(total int) (start, count int)
}

// Window is a fixed-position viewport over the row set.
type Window struct {
	Top    int
	Height int
}

func (w Window) VisibleRange(total int) (start, count int) {
	start = w.Top
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	count = w.Height
	if start+count > total {
		count = total - start
	}
	return start, count
}

var (
	headerPaint = color.New(color.Bold, color.FgCyan)
	busyPaint   = color.New(color.FgYellow)
	faintPaint  = color.New(color.Faint)
)

// Grid renders a window of rows for a fixed column list. Only rows inside the
// viewport are materialized; everything above and below stays untouched data.
type Grid struct {
	Columns []string
	Widths  map[string]int // pixel widths from EstimateWidths
}

func New(columns []string, widths map[string]int) *Grid {
	return &Grid{Columns: columns, Widths: widths}
}

// Render writes the header, the visible row window and, when busy, a
// non-destructive refresh indicator. A zero-row set renders the empty
// placeholder under the header instead of rows.
func (g *Grid) Render(w io.Writer, rows []map[string]any, vp Viewport, busy bool) {
	g.renderHeader(w)

	if len(rows) == 0 {
		faintPaint.Fprintln(w, "  (no rows)")
	} else {
		start, count := vp.VisibleRange(len(rows))
		for i := start; i < start+count; i++ {
			g.renderRow(w, rows[i])
		}
	}

	if busy {
		// Overlay, not replacement: rendered content stays put.
		busyPaint.Fprintln(w, "  ~ refreshing...")
	}
}

func (g *Grid) renderHeader(w io.Writer) {
	cells := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		cells[i] = pad(col, g.runeWidth(col))
	}
	headerPaint.Fprintln(w, strings.Join(cells, " | "))
}

func (g *Grid) renderRow(w io.Writer, row map[string]any) {
	cells := make([]string, len(g.Columns))
	for i, col := range g.Columns {
		cells[i] = pad(CellString(row[col]), g.runeWidth(col))
	}
	fmt.Fprintln(w, strings.Join(cells, " | "))
}

// runeWidth converts a column's pixel width back into a character budget for
// text surfaces.
func (g *Grid) runeWidth(col string) int {
	px, ok := g.Widths[col]
	if !ok {
		px = MinWidthPx
	}
	return int(float64(px) / CharPx)
}

func pad(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		if width <= 1 {
			return string(runes[:width])
		}
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}

// CellString renders one cell value for display. Missing and null values
// come out empty, never as a "null" token; floats that carry integers print
// without an exponent.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
