package helpers

import (
	"fmt"

	"github.com/spektr-org/crosstab/engine"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from an engine.Result
// ============================================================================
// One table per measure. Leading text columns hold the row combination,
// one number column per pivot column follows, then the row total. The
// summary line carries the column totals and the grand total.
// ============================================================================

// TotalKey is the Column.Key of the row-total column.
const TotalKey = "total"

// BuildTable renders one measure of res as a flat table. An empty measure
// name selects the first measure. Returns nil when res has no such measure.
func BuildTable(res *engine.Result, measure string, places int32) *TableData {
	m := pickMatrix(res, measure)
	if m == nil {
		return nil
	}

	columns := make([]Column, 0, len(res.RowFields)+len(res.Columns)+1)
	for _, f := range res.RowFields {
		columns = append(columns, Column{
			Key:   "row:" + f,
			Label: LabelForField(f),
			Type:  "text",
			Align: "left",
		})
	}
	for _, h := range res.Columns {
		columns = append(columns, Column{
			Key:   h.Key,
			Label: h.Label,
			Type:  "number",
			Align: "right",
		})
	}
	columns = append(columns, Column{Key: TotalKey, Label: "Total", Type: "number", Align: "right"})

	rows := make([][]string, 0, len(res.Rows))
	for r, h := range res.Rows {
		row := make([]string, 0, len(columns))
		for _, v := range h.Values {
			row = append(row, v.String())
		}
		for c := range res.Columns {
			row = append(row, FormatNumber(m.Cell(r, c), places))
		}
		row = append(row, FormatNumber(m.RowTotals[r], places))
		rows = append(rows, row)
	}

	values := make(map[string]string, len(res.Columns)+1)
	for c, h := range res.Columns {
		values[h.Key] = FormatNumber(m.ColumnTotals[c], places)
	}
	values[TotalKey] = FormatNumber(m.GrandTotal, places)

	return &TableData{
		Title:   tableTitle(m),
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  "Total",
			Values: values,
		},
	}
}

// BuildTables renders every measure of res, in configured order.
func BuildTables(res *engine.Result, places int32) []*TableData {
	if res == nil {
		return nil
	}
	tables := make([]*TableData, 0, len(res.Measures))
	for _, m := range res.Measures {
		tables = append(tables, BuildTable(res, m.Measure, places))
	}
	return tables
}

func pickMatrix(res *engine.Result, measure string) *engine.Matrix {
	if measure == "" {
		return res.Primary()
	}
	m, ok := res.Matrix(measure)
	if !ok {
		return nil
	}
	return m
}

func tableTitle(m *engine.Matrix) string {
	return fmt.Sprintf("%s of %s", LabelForAggregation(m.Aggregation), LabelForField(m.Measure))
}
