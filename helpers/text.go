package helpers

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spektr-org/crosstab/engine"
)

// ============================================================================
// TEXT BUILDER — Produces TextData for one measure
// ============================================================================
// Numbers are localized through x/text/message, so the same result reads
// "1,234.50" for English and "1.234,50" for German.
// ============================================================================

// Summarize describes one measure of res in a few sentences. An empty
// measure selects the first. Returns nil when res has no such measure.
func Summarize(res *engine.Result, measure string, lang language.Tag) *TextData {
	m := pickMatrix(res, measure)
	if m == nil {
		return nil
	}
	p := message.NewPrinter(lang)

	td := &TextData{
		Measure:  m.Measure,
		Value:    p.Sprintf("%.2f", m.GrandTotal),
		RawValue: m.GrandTotal,
		Rows:     len(res.Rows),
		Columns:  len(res.Columns),
		Warnings: len(res.Warnings),
	}

	bestR, bestC := -1, -1
	for r := range m.Cells {
		for c, v := range m.Cells[r] {
			if v == 0 {
				continue
			}
			td.Filled++
			if bestR < 0 || v > m.Cells[bestR][bestC] {
				bestR, bestC = r, c
			}
		}
	}

	td.Sentences = append(td.Sentences, p.Sprintf("%s of %s is %s across %d rows and %d columns.",
		LabelForAggregation(m.Aggregation), LabelForField(m.Measure), td.Value, td.Rows, td.Columns))

	if cells := td.Rows * td.Columns; cells > 0 {
		td.Sentences = append(td.Sentences, p.Sprintf("%d of %d cells hold a value.", td.Filled, cells))
	}
	if bestR >= 0 {
		td.Largest = res.Rows[bestR].Label + " × " + res.Columns[bestC].Label
		td.Sentences = append(td.Sentences, p.Sprintf("Largest cell is %s at %.2f.", td.Largest, m.Cells[bestR][bestC]))
	}
	if td.Warnings > 0 {
		kinds := make([]string, 0, len(res.Warnings))
		for _, w := range res.Warnings {
			kinds = append(kinds, string(w.Kind)+"("+w.Field+")")
		}
		td.Sentences = append(td.Sentences, p.Sprintf("%d warnings: %s.", td.Warnings, strings.Join(kinds, ", ")))
	}
	return td
}

// String joins the summary sentences.
func (t *TextData) String() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Sentences, " ")
}
