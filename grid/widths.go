package grid

// Width estimation constants. A column's width is derived from character
// counts, damped, and clamped to a fixed pixel range.
const (
	SampleCap  = 100 // rows inspected per column, regardless of page size
	CharPx     = 10.0
	Damping    = 0.8
	MinWidthPx = 140
	MaxWidthPx = 480
)

// EstimateWidths computes a display width per column from the header length
// and a bounded sample of the page's rows. It is a pure function of its
// inputs and always does a fresh full pass over the sample; callers rerun it
// whenever the column list or the row page changes.
func EstimateWidths(columns []string, rows []map[string]any) map[string]int {
	sample := rows
	if len(sample) > SampleCap {
		sample = sample[:SampleCap]
	}

	widths := make(map[string]int, len(columns))
	for _, col := range columns {
		longest := len([]rune(col))
		for _, row := range sample {
			if n := len([]rune(CellString(row[col]))); n > longest {
				longest = n
			}
		}

		px := int(float64(longest) * CharPx * Damping)
		if px < MinWidthPx {
			px = MinWidthPx
		}
		if px > MaxWidthPx {
			px = MaxWidthPx
		}
		widths[col] = px
	}
	return widths
}
