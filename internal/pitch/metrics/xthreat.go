package metrics

// defaultXThreatGrid is an 8×12 expected-threat surface over the pitch,
// attacking left to right. Rows span the pitch width, columns the length;
// values rise toward the opposing goal and toward the central channel.
var defaultXThreatGrid = [][]float64{
	{0.005, 0.01, 0.015, 0.02, 0.03, 0.04, 0.06, 0.08, 0.12, 0.18, 0.25, 0.35},
	{0.008, 0.015, 0.02, 0.03, 0.05, 0.07, 0.10, 0.15, 0.22, 0.30, 0.40, 0.50},
	{0.010, 0.02, 0.03, 0.05, 0.08, 0.12, 0.18, 0.25, 0.35, 0.45, 0.55, 0.65},
	{0.012, 0.025, 0.04, 0.07, 0.12, 0.18, 0.25, 0.35, 0.45, 0.55, 0.65, 0.75},
	{0.012, 0.025, 0.04, 0.07, 0.12, 0.18, 0.25, 0.35, 0.45, 0.55, 0.65, 0.75},
	{0.010, 0.02, 0.03, 0.05, 0.08, 0.12, 0.18, 0.25, 0.35, 0.45, 0.55, 0.65},
	{0.008, 0.015, 0.02, 0.03, 0.05, 0.07, 0.10, 0.15, 0.22, 0.30, 0.40, 0.50},
	{0.005, 0.01, 0.015, 0.02, 0.03, 0.04, 0.06, 0.08, 0.12, 0.18, 0.25, 0.35},
}

// XThreatGrid maps pitch coordinates in metres to an expected-threat
// value by cell lookup. Coordinates outside the field clamp to the
// nearest edge cell.
type XThreatGrid struct {
	fieldLength float64
	fieldWidth  float64
	grid        [][]float64
}

// NewXThreatGrid builds a lookup over the given field dimensions. A nil
// or ragged override falls back to the built-in surface.
func NewXThreatGrid(fieldLength, fieldWidth float64, override [][]float64) *XThreatGrid {
	grid := defaultXThreatGrid
	if validGrid(override) {
		grid = override
	}
	return &XThreatGrid{
		fieldLength: fieldLength,
		fieldWidth:  fieldWidth,
		grid:        grid,
	}
}

func validGrid(g [][]float64) bool {
	if len(g) == 0 {
		return false
	}
	cols := len(g[0])
	if cols == 0 {
		return false
	}
	for _, row := range g {
		if len(row) != cols {
			return false
		}
	}
	return true
}

// Value returns the threat value for the cell containing (x, y) metres.
func (g *XThreatGrid) Value(x, y float64) float64 {
	rows := len(g.grid)
	cols := len(g.grid[0])

	col := int(x / (g.fieldLength / float64(cols)))
	row := int(y / (g.fieldWidth / float64(rows)))
	col = clampIndex(col, cols-1)
	row = clampIndex(row, rows-1)
	return g.grid[row][col]
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
