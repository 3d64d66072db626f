package engine

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// AGGREGATORS — Grouping and Aggregation via RecordView
// ============================================================================
// Pipeline: locate (row, column) per filtered record → bucket by row →
// fill each row's cells. Rows are independent, so the fill step may run on
// several workers; each worker writes only its own row.
// ============================================================================

// Accumulator folds the measure values of one cell.
type Accumulator interface {
	Add(v float64)
	Result() float64
}

// Aggregator creates one Accumulator per non-empty cell.
// Cells with no matching records are 0 and never reach an Accumulator.
type Aggregator interface {
	Name() string
	NewAccumulator() Accumulator
}

// Sum is the default aggregator.
var Sum Aggregator = sumAggregator{}

type sumAggregator struct{}

func (sumAggregator) Name() string                { return "sum" }
func (sumAggregator) NewAccumulator() Accumulator { return &sumAccumulator{} }

type sumAccumulator struct{ total float64 }

func (a *sumAccumulator) Add(v float64)   { a.total += v }
func (a *sumAccumulator) Result() float64 { return a.total }

// ============================================================================
// MEASURE COERCION
// ============================================================================

// CoerceMeasure converts a measure value to a number.
// Finite numbers pass through; text is parsed and used when finite; everything
// else (NaN, ±Inf, bool, null) is 0. ok is false whenever the value was
// replaced by 0.
func CoerceMeasure(v Value) (f float64, ok bool) {
	switch v.Kind() {
	case KindNumber:
		n, _ := v.Float()
		if !isFinite(n) {
			return 0, false
		}
		return n, true
	case KindText:
		s, _ := v.Str()
		n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || !isFinite(n) {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ============================================================================
// AGGREGATION
// ============================================================================

type cellRef struct {
	col    int
	record int // index into the filtered view
}

type aggregation struct {
	view      RecordView
	rows      []Dimension
	cols      []Dimension
	measures  []string
	agg       Aggregator
	workers   int
	nRows     int
	nCols     int
	buckets   [][]cellRef
	values    []float64 // len(measures) values per filtered record
	anomalies *warningSet
}

// run returns one cell grid per measure, each nRows × nCols.
func (a *aggregation) run() ([][][]float64, error) {
	a.locate()

	cells := make([][][]float64, len(a.measures))
	for m := range cells {
		cells[m] = make([][]float64, a.nRows)
	}

	if a.workers <= 1 {
		for r := 0; r < a.nRows; r++ {
			a.fillRow(cells, r)
		}
		return cells, nil
	}

	var g errgroup.Group
	g.SetLimit(a.workers)
	for r := 0; r < a.nRows; r++ {
		r := r
		g.Go(func() error {
			a.fillRow(cells, r)
			return nil
		})
	}
	return cells, g.Wait()
}

// locate buckets filtered records by row and coerces their measures once,
// so each anomaly is reported once per record rather than once per cell.
func (a *aggregation) locate() {
	rowIdx := newPositionIndex(a.rows)
	colIdx := newPositionIndex(a.cols)
	a.buckets = make([][]cellRef, a.nRows)

	n := a.view.Len()
	nm := len(a.measures)
	a.values = make([]float64, n*nm)
	rowVals := make([]Value, len(a.rows))
	colVals := make([]Value, len(a.cols))

	for i := 0; i < n; i++ {
		for j, d := range a.rows {
			rowVals[j], _ = a.view.Value(i, d.Field)
		}
		for j, d := range a.cols {
			colVals[j], _ = a.view.Value(i, d.Field)
		}
		r := rowIdx.locate(rowVals)
		c := colIdx.locate(colVals)
		if r < 0 || c < 0 {
			continue
		}
		a.buckets[r] = append(a.buckets[r], cellRef{col: c, record: i})

		for m, field := range a.measures {
			v, _ := a.view.Value(i, field)
			f, ok := CoerceMeasure(v)
			if !ok {
				a.anomalies.note(WarnNonNumericMeasure, field, recordIndex(a.view, i))
			}
			a.values[i*nm+m] = f
		}
	}
}

// fillRow computes row r of every measure's grid. Writes only cells[*][r].
func (a *aggregation) fillRow(cells [][][]float64, r int) {
	nm := len(a.measures)
	for m := range a.measures {
		row := make([]float64, a.nCols)
		accs := make([]Accumulator, a.nCols)
		for _, ref := range a.buckets[r] {
			if accs[ref.col] == nil {
				accs[ref.col] = a.agg.NewAccumulator()
			}
			accs[ref.col].Add(a.values[ref.record*nm+m])
		}
		for c, acc := range accs {
			if acc != nil {
				row[c] = acc.Result()
			}
		}
		cells[m][r] = row
	}
}

// recordIndex maps a filtered index back to the caller's record index.
func recordIndex(view RecordView, i int) int {
	if sv, ok := view.(*SubView); ok {
		return sv.ParentIndex(i)
	}
	return i
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
