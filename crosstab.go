// Package crosstab provides a cross-tabulation ("pivot") engine for flat records.
//
// Usage:
//
//	import "github.com/spektr-org/crosstab/engine"
//
//	result, err := engine.Execute(dataset, engine.Config{
//	    RowFields:     []string{"region"},
//	    ColumnFields:  []string{"product"},
//	    MeasureFields: []string{"amount"},
//	}, engine.WithConcurrency(4))
//
// The engine takes a Dataset (records of typed scalar values) and a Config
// (row dimensions, column dimensions, measures, filters), and returns a
// Result holding the ordered row/column headers, one cell matrix per measure,
// row totals, column totals and a grand total.
//
// Loading data (helpers), describing it (schema), pivot definition files
// (config) and presenting results (helpers, cmd/crosstab) live outside the
// engine. The engine never performs I/O.
package crosstab
