package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/spektr-org/crosstab/engine"
	"github.com/spektr-org/crosstab/helpers"
)

// ============================================================================
// AUTO-DISCOVERY — Heuristic field classification
// ============================================================================
// Inspects a RecordView and generates a schema.Config automatically.
//
// Classification pipeline per field:
//   1. Sample values → detect type (numeric, date, bool, string)
//   2. Type + cardinality → classify role (dimension, measure, skip)
//   3. Pattern matching → detect special types (currency code, temporal)
//   4. Detect hierarchies between dimensions
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize     int      // Max records to inspect (0 = all). Default: 1000
	RecoverColumns []string // Force-include columns that were auto-skipped
	Name           string   // Dataset name override (otherwise inferred)
	Fields         []string // Fields to inspect, in order. Default: view.Fields()
}

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// DiscoverFromCSV parses CSV data and discovers its schema, keeping the
// header's column order.
func DiscoverFromCSV(data []byte, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	ds, keys, err := helpers.ParseCSV(data, helpers.CSVOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "discover csv")
	}
	if len(opt.Fields) == 0 {
		opt.Fields = keys
	}

	config, err := Discover(engine.NewSliceView(ds), opt)
	if err != nil {
		return nil, err
	}
	config.DiscoveredFrom = "CSV"
	return config, nil
}

// Discover generates a schema.Config by inspecting a view.
// Returns a complete Config with dimensions, measures and skipped columns.
func Discover(view engine.RecordView, opts ...DiscoverOptions) (*Config, error) {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if view == nil || view.Len() == 0 {
		return nil, errors.Wrap(engine.ErrInvalidDataset, "dataset has no records")
	}
	fields := opt.Fields
	if len(fields) == 0 {
		fields = view.Fields()
	}
	if len(fields) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidDataset, "dataset has no fields")
	}

	// 1. Sample bound
	limit := view.Len()
	if opt.SampleSize > 0 && opt.SampleSize < limit {
		limit = opt.SampleSize
	}

	// 2. Analyze each field
	columns := make([]columnAnalysis, len(fields))
	for i, field := range fields {
		columns[i] = analyzeField(view, field, limit)
	}

	// 3. Apply recovery overrides
	recoverSet := make(map[string]bool)
	for _, col := range opt.RecoverColumns {
		recoverSet[strings.ToLower(col)] = true
	}

	config := &Config{
		Name:    opt.Name,
		Records: view.Len(),
	}
	if config.Name == "" {
		config.Name = "Auto-discovered Dataset"
	}

	var dimensions []DimensionMeta
	var measures []MeasureMeta
	var skipped []SkippedColumn

	for i := range columns {
		col := &columns[i]
		switch col.role {
		case roleDimension:
			dimensions = append(dimensions, col.toDimension())

		case roleMeasure:
			measures = append(measures, col.toMeasure())

		case roleSkipped:
			if recoverSet[strings.ToLower(col.key)] {
				col.role = roleDimension
				dimensions = append(dimensions, col.toDimension())
				continue
			}
			skipped = append(skipped, SkippedColumn{
				Column:      col.key,
				Reason:      col.skipReason,
				Recoverable: col.recoverable,
			})
		}
	}

	// 4. Detect hierarchies
	detectHierarchies(dimensions, view, limit)

	config.Dimensions = dimensions
	config.Measures = measures
	config.SkippedColumns = skipped
	config.DiscoveredFrom = "RecordView"
	config.DiscoveredAt = time.Now().Format(time.RFC3339)

	return config, nil
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnRole int

const (
	roleDimension columnRole = iota
	roleMeasure
	roleSkipped
)

type columnType int

const (
	typeString columnType = iota
	typeNumeric
	typeDate
	typeBool
)

type columnAnalysis struct {
	key         string
	colType     columnType
	kind        engine.Kind
	role        columnRole
	skipReason  string
	recoverable bool

	// Stats
	uniqueCount int
	totalCount  int
	nullCount   int
	sampleVals  []string

	// Special type detection
	isTemporal      bool
	temporalFormat  string
	isCurrencyCode  bool
	hasDecimals     bool
	cardinalityHint string
}

// nullTokens are text values read as missing during discovery.
var nullTokens = map[string]bool{"null": true, "NULL": true, "N/A": true, "n/a": true}

// analyzeField inspects the first limit values of a field and classifies it.
func analyzeField(view engine.RecordView, field string, limit int) columnAnalysis {
	col := columnAnalysis{
		key:        field,
		totalCount: limit,
	}

	values := make([]engine.Value, 0, limit)
	uniqueSet := make(map[string]string)
	kinds := make(map[engine.Kind]int)

	for i := 0; i < limit; i++ {
		v, ok := view.Value(i, field)
		if !ok || v.IsNull() {
			col.nullCount++
			continue
		}
		if s, isText := v.Str(); isText && (strings.TrimSpace(s) == "" || nullTokens[strings.TrimSpace(s)]) {
			col.nullCount++
			continue
		}
		values = append(values, v)
		uniqueSet[v.Key()] = v.String()
		kinds[v.Kind()]++
	}

	col.uniqueCount = len(uniqueSet)

	if len(values) == 0 {
		col.role = roleSkipped
		col.skipReason = "All values are empty/null"
		col.recoverable = false
		return col
	}

	col.kind = dominantKind(kinds)
	col.sampleVals = collectSamples(uniqueSet, 10)

	// Step 1: Detect type
	col.colType = detectType(values)

	// Decimals signal continuous data → measure
	if col.colType == typeNumeric {
		col.hasDecimals = hasDecimals(values)
	}

	// Step 2: Detect special patterns BEFORE role classification
	if col.colType == typeString {
		col.isCurrencyCode = detectCurrencyCodes(col.sampleVals)
		col.isTemporal, col.temporalFormat = detectTemporalPattern(col.sampleVals)
	}
	if col.colType == typeDate {
		col.isTemporal = true
	}

	// Step 3: Classify role based on type + cardinality
	col.classifyRole(limit - col.nullCount)

	// Step 4: Set cardinality hint
	switch {
	case col.uniqueCount <= 10:
		col.cardinalityHint = "low"
	case col.uniqueCount <= 100:
		col.cardinalityHint = "medium"
	default:
		col.cardinalityHint = "high"
	}

	return col
}

// classifyRole determines dimension vs measure vs skip. present is the
// number of non-null values inspected.
func (col *columnAnalysis) classifyRole(present int) {
	switch col.colType {

	case typeNumeric:
		if col.uniqueCount == present && present > 10 && !col.hasDecimals {
			// Every value a distinct integer → likely an ID
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an ID column"
			col.recoverable = false
			return
		}
		if col.hasDecimals {
			col.role = roleMeasure
			return
		}
		// Few unique values AND a low ratio → coded dimension (e.g., priority 1-5).
		// An absolute bound alone misreads small datasets where 6/12 is 50%.
		uniqueRatio := float64(col.uniqueCount) / float64(present)
		if col.uniqueCount < 20 && uniqueRatio < 0.3 {
			col.role = roleDimension
			return
		}
		col.role = roleMeasure

	case typeDate:
		col.role = roleDimension
		col.isTemporal = true

	case typeBool:
		col.role = roleDimension

	case typeString:
		if col.uniqueCount == present && present > 10 {
			col.role = roleSkipped
			col.skipReason = "Unique per row — likely an identifier"
			col.recoverable = false
			return
		}
		if col.uniqueCount > present/2 && col.uniqueCount > 50 {
			col.role = roleSkipped
			col.skipReason = fmt.Sprintf("High cardinality (%d unique values) — not useful for grouping", col.uniqueCount)
			col.recoverable = true
			return
		}
		col.role = roleDimension
	}
}

// ============================================================================
// TYPE DETECTION
// ============================================================================

// detectType inspects values to determine column type.
// Requires 80%+ of non-null values to match for numeric/date/bool.
func detectType(values []engine.Value) columnType {
	if len(values) == 0 {
		return typeString
	}

	numCount := 0
	dateCount := 0
	boolCount := 0

	for _, v := range values {
		switch v.Kind() {
		case engine.KindNumber:
			numCount++
		case engine.KindBool:
			boolCount++
		case engine.KindText:
			s, _ := v.Str()
			if _, ok := engine.CoerceMeasure(v); ok {
				numCount++
			}
			if isDate(s) {
				dateCount++
			}
			if isBool(s) {
				boolCount++
			}
		}
	}

	// Ceiling of 80%, so a single value must match itself.
	threshold := (len(values)*4 + 4) / 5

	if boolCount >= threshold {
		return typeBool
	}
	if dateCount >= threshold {
		return typeDate
	}
	if numCount >= threshold {
		return typeNumeric
	}
	return typeString
}

func hasDecimals(values []engine.Value) bool {
	for _, v := range values {
		if f, ok := v.Float(); ok && f != math.Trunc(f) {
			return true
		}
		if s, ok := v.Str(); ok && strings.Contains(s, ".") {
			return true
		}
	}
	return false
}

func dominantKind(kinds map[engine.Kind]int) engine.Kind {
	best, bestN := engine.KindNull, 0
	for _, k := range []engine.Kind{engine.KindNumber, engine.KindText, engine.KindBool} {
		if kinds[k] > bestN {
			best, bestN = k, kinds[k]
		}
	}
	return best
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"Jan-2006",
	"January 2006",
	"2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func isDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

func isBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "false" || s == "yes" || s == "no"
}

// ============================================================================
// SPECIAL PATTERN DETECTION
// ============================================================================

// Known ISO 4217 currency codes (common subset).
var knownCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "CNY": true,
	"INR": true, "SGD": true, "AUD": true, "CAD": true, "CHF": true,
	"HKD": true, "NZD": true, "SEK": true, "KRW": true, "NOK": true,
	"MXN": true, "BRL": true, "ZAR": true, "THB": true, "MYR": true,
	"IDR": true, "PHP": true, "VND": true, "TWD": true, "AED": true,
	"SAR": true, "QAR": true, "PLN": true, "CZK": true, "ILS": true,
	"DKK": true, "RUB": true, "TRY": true, "ARS": true, "CLP": true,
}

// detectCurrencyCodes checks if sample values are ISO currency codes.
func detectCurrencyCodes(samples []string) bool {
	if len(samples) == 0 {
		return false
	}
	matches := 0
	for _, s := range samples {
		if knownCurrencies[strings.TrimSpace(s)] {
			matches++
		}
	}
	// At least 80% must be valid currency codes
	return float64(matches)/float64(len(samples)) >= 0.8
}

var monthPatterns = []struct {
	re     *regexp.Regexp
	format string
}{
	{regexp.MustCompile(`^[A-Z][a-z]{2}-\d{4}$`), "MMM-yyyy"}, // Jan-2026
	{regexp.MustCompile(`^\d{4}-\d{2}$`), "yyyy-MM"},          // 2026-01
	{regexp.MustCompile(`^Q[1-4]-\d{4}$`), "QN-yyyy"},         // Q1-2026
	{regexp.MustCompile(`^Q[1-4]\s+\d{4}$`), "QN yyyy"},       // Q1 2026
	{regexp.MustCompile(`^\d{4}$`), "yyyy"},                   // 2026
	{regexp.MustCompile(`^[A-Z][a-z]+ \d{4}$`), "MMMM yyyy"},  // January 2026
}

// detectTemporalPattern checks if values match known month/quarter patterns.
func detectTemporalPattern(samples []string) (bool, string) {
	if len(samples) == 0 {
		return false, ""
	}

	for _, pattern := range monthPatterns {
		matches := 0
		for _, s := range samples {
			if pattern.re.MatchString(strings.TrimSpace(s)) {
				matches++
			}
		}
		if float64(matches)/float64(len(samples)) >= 0.8 {
			return true, pattern.format
		}
	}

	return false, ""
}

// ============================================================================
// HIERARCHY DETECTION
// ============================================================================

// detectHierarchies finds parent/child relationships between dimensions.
// If every value of dimension B maps to exactly one value of dimension A,
// and A has fewer unique values, then A is parent of B.
// When multiple valid parents exist, picks the closest (highest cardinality).
func detectHierarchies(dimensions []DimensionMeta, view engine.RecordView, limit int) {
	for i := range dimensions {
		child := dimensions[i]
		bestParent := ""
		bestParentUniques := 0

		for j := range dimensions {
			parent := dimensions[j]
			if i == j || parent.UniqueCount >= child.UniqueCount {
				continue
			}
			if parent.UniqueCount > bestParentUniques && isFunctionOf(view, limit, child.Key, parent.Key) {
				bestParent = parent.Key
				bestParentUniques = parent.UniqueCount
			}
		}

		if bestParent != "" {
			dimensions[i].Parent = bestParent
		}
	}
}

// isFunctionOf reports whether every non-null child value maps to exactly
// one parent value, over more than one child value.
func isFunctionOf(view engine.RecordView, limit int, child, parent string) bool {
	childToParent := make(map[string]string)
	for r := 0; r < limit; r++ {
		c, ok1 := view.Value(r, child)
		p, ok2 := view.Value(r, parent)
		if !ok1 || !ok2 || c.IsNull() || p.IsNull() {
			continue
		}
		if existing, seen := childToParent[c.Key()]; seen {
			if existing != p.Key() {
				return false
			}
			continue
		}
		childToParent[c.Key()] = p.Key()
	}
	return len(childToParent) > 1
}

// ============================================================================
// CONVERSION HELPERS
// ============================================================================

// toDimension converts a column analysis into DimensionMeta.
func (col *columnAnalysis) toDimension() DimensionMeta {
	return DimensionMeta{
		Key:             col.key,
		DisplayName:     helpers.LabelForField(col.key),
		Kind:            col.kind.String(),
		SampleValues:    col.sampleVals,
		UniqueCount:     col.uniqueCount,
		NullCount:       col.nullCount,
		IsTemporal:      col.isTemporal,
		TemporalFormat:  col.temporalFormat,
		IsCurrencyCode:  col.isCurrencyCode,
		CardinalityHint: col.cardinalityHint,
	}
}

// toMeasure converts a column analysis into MeasureMeta.
func (col *columnAnalysis) toMeasure() MeasureMeta {
	return MeasureMeta{
		Key:         col.key,
		DisplayName: helpers.LabelForField(col.key),
		HasDecimals: col.hasDecimals,
		NullCount:   col.nullCount,
	}
}

// collectSamples picks up to maxSamples display values, sorted for
// deterministic output.
func collectSamples(uniqueSet map[string]string, maxSamples int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for _, v := range uniqueSet {
		samples = append(samples, v)
	}
	sort.Strings(samples)

	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}
	return samples
}
