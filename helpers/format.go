package helpers

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPlaces is the number of decimal places used for table cells.
const DefaultPlaces = 2

// FormatNumber renders v with a fixed number of decimal places, rounding
// half away from zero in decimal rather than binary.
func FormatNumber(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// LabelForField turns a field key into a display label: "unit_price" → "Unit Price".
func LabelForField(field string) string {
	if field == "" {
		return ""
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(strings.ReplaceAll(field, "_", " "))
}

// LabelForFields joins the labels of several fields with " / ".
func LabelForFields(fields []string) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = LabelForField(f)
	}
	return strings.Join(labels, " / ")
}

// LabelForAggregation returns a human-readable label for an aggregation name.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Total"
	case "count":
		return "Count"
	case "avg":
		return "Average"
	case "max":
		return "Maximum"
	case "min":
		return "Minimum"
	default:
		return "Value"
	}
}
