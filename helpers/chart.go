package helpers

import (
	"github.com/spektr-org/crosstab/engine"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from an engine.Result
// ============================================================================
// Row headers become the x axis, each column header becomes a series.
// A pivot with a single column renders as a plain bar chart.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a ChartConfig for one measure of res. An empty
// measure selects the first. Returns nil when there is nothing to plot.
func BuildChart(res *engine.Result, measure string) *ChartConfig {
	m := pickMatrix(res, measure)
	if m == nil || len(res.Rows) == 0 || len(res.Columns) == 0 {
		return nil
	}

	chartType := "stacked_bar"
	if len(res.Columns) == 1 {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      tableTitle(m),
		XAxis:      LabelForFields(res.RowFields),
		YAxis:      LabelForField(m.Measure),
		ShowLegend: len(res.Columns) > 1,
		ShowGrid:   true,
	}

	config.Series = make([]ChartSeries, 0, len(res.Columns))
	for c, col := range res.Columns {
		points := make([]ChartPoint, 0, len(res.Rows))
		for r, row := range res.Rows {
			points = append(points, ChartPoint{
				Label: row.Label,
				Value: RoundTo2(m.Cell(r, c)),
			})
		}
		config.Series = append(config.Series, ChartSeries{
			Name:  col.Label,
			Data:  points,
			Color: defaultColors[c%len(defaultColors)],
		})
	}

	config.Colors = assignColors(len(config.Series))
	return config
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
