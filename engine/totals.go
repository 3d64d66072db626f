package engine

import "math"

// ============================================================================
// TOTALS — row, column and grand totals over a complete grid
// ============================================================================

// ComputeTotals sums cells by row and by column. The grand total is the sum
// of row totals.
func ComputeTotals(cells [][]float64, nCols int) (rowTotals, colTotals []float64, grand float64) {
	rowTotals = make([]float64, len(cells))
	colTotals = make([]float64, nCols)
	for r, row := range cells {
		for c, v := range row {
			rowTotals[r] += v
			colTotals[c] += v
		}
		grand += rowTotals[r]
	}
	return rowTotals, colTotals, grand
}

// TotalsConsistent reports whether Σ row totals, Σ column totals and the
// grand total agree within tol (relative to the grand total's magnitude
// when that exceeds 1).
func TotalsConsistent(m *Matrix, tol float64) bool {
	var sumRows, sumCols float64
	for _, v := range m.RowTotals {
		sumRows += v
	}
	for _, v := range m.ColumnTotals {
		sumCols += v
	}
	scale := math.Max(1, math.Abs(m.GrandTotal))
	return math.Abs(sumRows-m.GrandTotal) <= tol*scale &&
		math.Abs(sumCols-m.GrandTotal) <= tol*scale
}
