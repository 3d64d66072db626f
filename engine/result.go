package engine

import "sort"

// ============================================================================
// RESULT ASSEMBLER — structure only, no computation
// ============================================================================

func assemble(cfg Config, rows, cols []Header, matrices []Matrix, warnings []Warning) *Result {
	if rows == nil {
		rows = []Header{}
	}
	if cols == nil {
		cols = []Header{}
	}
	return &Result{
		RowFields:    cfg.RowFields,
		ColumnFields: cfg.ColumnFields,
		Rows:         rows,
		Columns:      cols,
		Measures:     matrices,
		Warnings:     warnings,
	}
}

// emptyMatrices builds the all-zero matrices of an empty pivot.
func emptyMatrices(cfg Config, agg Aggregator) []Matrix {
	out := make([]Matrix, len(cfg.MeasureFields))
	for i, m := range cfg.MeasureFields {
		out[i] = Matrix{
			Measure:      m,
			Aggregation:  agg.Name(),
			Cells:        [][]float64{},
			RowTotals:    []float64{},
			ColumnTotals: []float64{},
		}
	}
	return out
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
