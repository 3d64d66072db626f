package engine

import (
	"reflect"

	"github.com/pkg/errors"
)

// ============================================================================
// EXECUTOR — Pivot pipeline entry point
// ============================================================================
// Entry point: Execute(dataset, config, opts...)
//
// Pipeline:
//   1. Validate + normalize config
//   2. Analyze dimensions on the unfiltered view (optionally cached)
//   3. Generate row / column combinations
//   4. Apply filters → SubView
//   5. Aggregate every (row, column) cell per measure
//   6. Compute totals
//   7. Assemble the Result
//
// Pure: no I/O, no state kept between calls except an optional cache.
// ============================================================================

// Execute pivots a Dataset.
func Execute(ds Dataset, cfg Config, opts ...Option) (*Result, error) {
	return ExecuteView(NewSliceView(ds), cfg, opts...)
}

// ExecuteView pivots any RecordView.
func ExecuteView(view RecordView, cfg Config, opts ...Option) (*Result, error) {
	if isNilView(view) {
		return nil, errors.Wrap(ErrInvalidDataset, "nil view")
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	cfg = normalizeConfig(cfg)

	if view.Len() == 0 {
		o.Logger.Printf("🔧 Crosstab: empty dataset, returning empty pivot")
		return assemble(cfg, nil, nil, emptyMatrices(cfg, o.Aggregator), nil), nil
	}

	o.Logger.Printf("🔧 Crosstab: Processing %d records, rows=%v, columns=%v, measures=%v",
		view.Len(), cfg.RowFields, cfg.ColumnFields, cfg.MeasureFields)

	// 1. Dimension universe from the unfiltered view
	rowDims, colDims := analyze(view, cfg, o)
	anomalies := newWarningSet()
	noteDimensionAnomalies(anomalies, append(append([]Dimension{}, rowDims...), colDims...))
	noteUnknownFields(anomalies, view, cfg)

	// 2. Combinations
	rowCombos := Combinations(rowDims)
	colCombos := Combinations(colDims)
	o.Logger.Printf("🔧 Crosstab: %d row × %d column combinations", len(rowCombos), len(colCombos))

	// 3. Filters
	filtered := ApplyFilters(view, cfg.Filters)
	if len(cfg.Filters) > 0 {
		o.Logger.Printf("🔧 Crosstab: %d records after filtering (from %d)", filtered.Len(), view.Len())
	}

	// 4. Aggregate
	agg := &aggregation{
		view:      filtered,
		rows:      rowDims,
		cols:      colDims,
		measures:  cfg.MeasureFields,
		agg:       o.Aggregator,
		workers:   o.Workers,
		nRows:     len(rowCombos),
		nCols:     len(colCombos),
		anomalies: anomalies,
	}
	grids, err := agg.run()
	if err != nil {
		return nil, errors.Wrap(err, "aggregate")
	}

	// 5. Totals
	matrices := make([]Matrix, len(cfg.MeasureFields))
	for m, measure := range cfg.MeasureFields {
		rowTotals, colTotals, grand := ComputeTotals(grids[m], len(colCombos))
		matrices[m] = Matrix{
			Measure:      measure,
			Aggregation:  o.Aggregator.Name(),
			Cells:        grids[m],
			RowTotals:    rowTotals,
			ColumnTotals: colTotals,
			GrandTotal:   grand,
		}
	}

	warnings := anomalies.warnings()
	for _, w := range warnings {
		o.Logger.Printf("⚠️ Crosstab: %s", w.Message)
	}

	// 6. Assemble
	return assemble(cfg,
		headersFor(rowCombos, o.LabelSeparator),
		headersFor(colCombos, o.LabelSeparator),
		matrices, warnings), nil
}

// isNilView reports a nil interface or a typed nil pointer behind it.
func isNilView(view RecordView) bool {
	if view == nil {
		return true
	}
	rv := reflect.ValueOf(view)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// analyze runs the Dimension Analyzer for rows and columns, through the
// cache when one is configured.
func analyze(view RecordView, cfg Config, o *config) (rows, cols []Dimension) {
	if o.Cache == nil {
		return AnalyzeDimensions(view, cfg.RowFields), AnalyzeDimensions(view, cfg.ColumnFields)
	}
	return o.Cache.Analyze(o.DatasetID, view, cfg.RowFields), o.Cache.Analyze(o.DatasetID, view, cfg.ColumnFields)
}

func noteDimensionAnomalies(ws *warningSet, dims []Dimension) {
	seen := make(map[string]bool)
	for _, d := range dims {
		if seen[d.Field] {
			continue
		}
		seen[d.Field] = true
		if !d.Present {
			ws.add(WarnUnknownField, d.Field, 1, -1)
			continue
		}
		if d.Missing > 0 {
			ws.add(WarnMissingField, d.Field, d.Missing, d.FirstMissing)
		}
	}
}

// noteUnknownFields flags measure and filter fields that no record carries.
func noteUnknownFields(ws *warningSet, view RecordView, cfg Config) {
	known := make(map[string]bool, len(view.Fields()))
	for _, f := range view.Fields() {
		known[f] = true
	}
	dims := make(map[string]bool)
	for _, f := range cfg.RowFields {
		dims[f] = true
	}
	for _, f := range cfg.ColumnFields {
		dims[f] = true
	}
	reported := make(map[string]bool)
	check := func(f string) {
		if known[f] || dims[f] || reported[f] {
			return
		}
		reported[f] = true
		ws.add(WarnUnknownField, f, 1, -1)
	}
	for _, f := range cfg.MeasureFields {
		check(f)
	}
	for _, f := range sortedKeys(cfg.Filters) {
		check(f)
	}
}
