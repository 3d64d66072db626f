package engine

import (
	"strings"
)

// ============================================================================
// CROSSTAB ENGINE TYPES
// ============================================================================
// Record/Dataset: caller-supplied rows of typed scalars.
// Config: which fields become row axes, column axes and measures.
// Result: the assembled pivot, owned by the caller once returned.
// ============================================================================

// Record is one input row: field name → scalar. Records need not share fields;
// a field missing from a record reads as Null.
type Record map[string]Value

// Dataset is an ordered sequence of Records.
type Dataset []Record

// AllValues is the filter sentinel meaning "no constraint on this field".
const AllValues = "all"

// ============================================================================
// CONFIG
// ============================================================================

// Config defines what the engine should compute.
type Config struct {
	RowFields     []string         `json:"rowFields"`
	ColumnFields  []string         `json:"columnFields"`
	MeasureFields []string         `json:"measureFields"`
	Filters       map[string]Value `json:"filters,omitempty"`
}

// ActiveFilters returns the filter entries that actually constrain records,
// skipping entries set to Text(AllValues).
func (c Config) ActiveFilters() map[string]Value {
	active := make(map[string]Value, len(c.Filters))
	for field, v := range c.Filters {
		if isUnconstrained(v) {
			continue
		}
		active[field] = v
	}
	return active
}

func isUnconstrained(v Value) bool {
	s, ok := v.Str()
	return ok && s == AllValues
}

// ============================================================================
// COMBINATION — one row or column tuple
// ============================================================================

// Combination is an ordered tuple of dimension values, one per axis field.
type Combination []Value

// Key encodes the tuple unambiguously: component keys are length-prefixed,
// so values containing any delimiter cannot collide.
func (c Combination) Key() string {
	var sb strings.Builder
	for _, v := range c {
		sb.WriteString(v.Key())
	}
	return sb.String()
}

// Label joins the components' display strings with sep.
func (c Combination) Label(sep string) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

// ============================================================================
// RESULT
// ============================================================================

// Header identifies one row or column of the pivot.
type Header struct {
	Key    string      `json:"key"`
	Values Combination `json:"values"`
	Label  string      `json:"label"`
}

// Matrix holds one measure's cells and totals.
// Cells[r][c] is indexed by Result.Rows[r] and Result.Columns[c].
type Matrix struct {
	Measure      string      `json:"measure"`
	Aggregation  string      `json:"aggregation"`
	Cells        [][]float64 `json:"cells"`
	RowTotals    []float64   `json:"rowTotals"`
	ColumnTotals []float64   `json:"columnTotals"`
	GrandTotal   float64     `json:"grandTotal"`
}

// Result is the engine's output. One Matrix per configured measure, all
// sharing the same Rows and Columns.
type Result struct {
	RowFields    []string  `json:"rowFields"`
	ColumnFields []string  `json:"columnFields"`
	Rows         []Header  `json:"rows"`
	Columns      []Header  `json:"columns"`
	Measures     []Matrix  `json:"measures"`
	Warnings     []Warning `json:"warnings,omitempty"`
}

// Primary returns the first measure's matrix, or nil if there is none.
func (r *Result) Primary() *Matrix {
	if r == nil || len(r.Measures) == 0 {
		return nil
	}
	return &r.Measures[0]
}

// Matrix returns the matrix for a measure by name.
func (r *Result) Matrix(measure string) (*Matrix, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Measures {
		if r.Measures[i].Measure == measure {
			return &r.Measures[i], true
		}
	}
	return nil, false
}

// RowIndex returns the index of the row whose combination equals values.
func (r *Result) RowIndex(values ...Value) int {
	return headerIndex(r.Rows, Combination(values).Key())
}

// ColumnIndex returns the index of the column whose combination equals values.
func (r *Result) ColumnIndex(values ...Value) int {
	return headerIndex(r.Columns, Combination(values).Key())
}

func headerIndex(headers []Header, key string) int {
	for i, h := range headers {
		if h.Key == key {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or 0 when either index is out of range.
func (m *Matrix) Cell(row, col int) float64 {
	if row < 0 || row >= len(m.Cells) || col < 0 || col >= len(m.Cells[row]) {
		return 0
	}
	return m.Cells[row][col]
}

// ============================================================================
// WARNINGS — non-fatal anomalies
// ============================================================================

// WarningKind classifies a non-fatal anomaly.
type WarningKind string

const (
	// WarnUnknownField: a configured field never occurs in any record.
	WarnUnknownField WarningKind = "unknown_field"
	// WarnMissingField: some records lack a configured dimension field.
	WarnMissingField WarningKind = "missing_field"
	// WarnNonNumericMeasure: measure values coerced to 0.
	WarnNonNumericMeasure WarningKind = "non_numeric_measure"
)

// Warning aggregates every occurrence of one anomaly kind on one field.
type Warning struct {
	Kind        WarningKind `json:"kind"`
	Field       string      `json:"field"`
	Count       int         `json:"count"`
	FirstRecord int         `json:"firstRecord"`
	Message     string      `json:"message"`
}
