package helpers

// ============================================================================
// PRESENTATION TYPES — what the builders hand to a renderer
// ============================================================================

// TableData is a flat grid view of one measure: row-field columns, one
// column per pivot column, then the row total.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column describes one table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary is the totals line under the table body. Values are keyed by
// Column.Key; the first column carries Label.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// SummaryRow lays the summary out in column order.
func (t *TableData) SummaryRow() []string {
	if t.Summary == nil {
		return nil
	}
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = t.Summary.Values[c.Key]
	}
	if len(row) > 0 && row[0] == "" {
		row[0] = t.Summary.Label
	}
	return row
}

// ChartConfig is renderer-agnostic chart data.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries is one named line/bar group.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is one x label and its value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// TextData is a short prose summary of one measure.
type TextData struct {
	Measure   string   `json:"measure"`
	Value     string   `json:"value"`
	RawValue  float64  `json:"rawValue"`
	Rows      int      `json:"rows"`
	Columns   int      `json:"columns"`
	Filled    int      `json:"filled"`
	Largest   string   `json:"largest,omitempty"`
	Warnings  int      `json:"warnings"`
	Sentences []string `json:"sentences"`
}
