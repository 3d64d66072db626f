package helpers

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spektr-org/crosstab/engine"
)

// ============================================================================
// CSV HELPER — Parses CSV data into an engine.Dataset
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, S3, Sheets).
// This helper converts the raw bytes into typed Records: each cell becomes
// Null, Bool, Number or Text depending on what it parses as.
// ============================================================================

// CSVOptions tunes how cells and headers are interpreted.
type CSVOptions struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// TextColumns lists normalized column names whose cells are always Text,
	// e.g. zero-padded codes that must not become numbers.
	TextColumns []string
	// NullTokens are cell contents read as Null. An empty cell is always Null.
	NullTokens []string
	// RawHeaders keeps header text as-is (trimmed) instead of snake_casing it.
	RawHeaders bool
}

// ParseCSV parses CSV bytes into a Dataset. The first row is the header.
// Returns the dataset and the field names in column order.
func ParseCSV(data []byte, opts CSVOptions) (engine.Dataset, []string, error) {
	return ReadCSV(bytes.NewReader(data), opts)
}

// ReadCSV is ParseCSV over a reader.
func ReadCSV(r io.Reader, opts CSVOptions) (engine.Dataset, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	headers, err := reader.Read()
	if err == io.EOF {
		return engine.Dataset{}, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "read csv header")
	}

	keys := headerKeys(headers, opts.RawHeaders)
	textCols, nulls := opts.lookups()

	ds := engine.Dataset{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, "read csv row")
		}
		if len(row) > len(keys) {
			line, _ := reader.FieldPos(0)
			return nil, nil, errors.Wrapf(engine.ErrInvalidDataset,
				"csv line %d has %d fields, header has %d", line, len(row), len(keys))
		}

		// Short rows leave trailing fields absent rather than Null.
		rec := make(engine.Record, len(row))
		for i, cell := range row {
			rec[keys[i]] = inferCell(cell, textCols[keys[i]], nulls)
		}
		ds = append(ds, rec)
	}

	return ds, keys, nil
}

// ParseCell types a single raw string the way ReadCSV would type it in
// column field, e.g. for filter values given on a command line.
func (o CSVOptions) ParseCell(field, raw string) engine.Value {
	textCols, nulls := o.lookups()
	return inferCell(raw, textCols[field], nulls)
}

func (o CSVOptions) lookups() (textCols, nulls map[string]bool) {
	textCols = make(map[string]bool, len(o.TextColumns))
	for _, c := range o.TextColumns {
		textCols[c] = true
	}
	nulls = make(map[string]bool, len(o.NullTokens))
	for _, tok := range o.NullTokens {
		nulls[tok] = true
	}
	return textCols, nulls
}

// inferCell types a raw cell. Booleans are only "true"/"false" (any case);
// numbers must be finite.
func inferCell(raw string, forceText bool, nulls map[string]bool) engine.Value {
	s := strings.TrimSpace(raw)
	if s == "" || nulls[s] {
		return engine.Null()
	}
	if forceText {
		return engine.Text(s)
	}
	switch strings.ToLower(s) {
	case "true":
		return engine.Bool(true)
	case "false":
		return engine.Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return engine.Number(f)
	}
	return engine.Text(s)
}

// headerKeys normalizes header cells and disambiguates duplicates with a
// numeric suffix ("amount", "amount_2").
func headerKeys(headers []string, raw bool) []string {
	keys := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.TrimSpace(h)
		if !raw {
			key = toSnakeCase(key)
		}
		if key == "" {
			key = "col_" + strconv.Itoa(i+1)
		}
		seen[key]++
		if n := seen[key]; n > 1 {
			key = key + "_" + strconv.Itoa(n)
		}
		keys[i] = key
	}
	return keys
}

// toSnakeCase converts "Région Name" → "region_name" and "unitPrice" →
// "unit_price": accents are stripped, separators collapse to a single
// underscore and other symbols are dropped.
func toSnakeCase(s string) string {
	s = strings.ToLower(splitCamel(strings.TrimSpace(s)))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err == nil {
		s = folded
	}

	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.' || r == '/':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// splitCamel inserts an underscore where a lower-case letter or digit is
// followed by an upper-case one.
func splitCamel(s string) string {
	var b strings.Builder
	prev := rune(-1)
	for _, r := range s {
		if unicode.IsUpper(r) && prev >= 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			b.WriteRune('_')
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// ============================================================================
// CSV OUTPUT
// ============================================================================

// WriteTableCSV writes a TableData as CSV: a header row of column labels,
// the body rows, then the summary row when present.
func WriteTableCSV(w io.Writer, t *TableData) error {
	if t == nil {
		return errors.New("nil table")
	}
	cw := csv.NewWriter(w)

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Label
	}
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	if t.Summary != nil {
		if err := cw.Write(t.SummaryRow()); err != nil {
			return errors.Wrap(err, "write csv summary")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}
