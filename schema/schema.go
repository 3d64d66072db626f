package schema

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/spektr-org/crosstab/engine"
)

// ============================================================================
// SCHEMA — Describes the shape of a dataset for pivot suggestion
// ============================================================================
// Auto-discovered from a RecordView. Dimensions are fields worth grouping
// by, measures are numeric fields worth summing. Suggest() turns a schema
// into a ready-to-run engine.Config.
// ============================================================================

// Config describes the complete shape of a dataset.
type Config struct {
	Name    string `json:"name"`
	Records int    `json:"records"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// Auto-discovery metadata
	DiscoveredFrom string `json:"discoveredFrom,omitempty"`
	DiscoveredAt   string `json:"discoveredAt,omitempty"`

	// Columns skipped during auto-discovery
	SkippedColumns []SkippedColumn `json:"skippedColumns,omitempty"`
}

// DimensionMeta describes a field used for row or column axes.
type DimensionMeta struct {
	Key             string   `json:"key"`
	DisplayName     string   `json:"displayName"`
	Kind            string   `json:"kind"` // dominant engine.Kind of non-null values
	SampleValues    []string `json:"sampleValues"`
	UniqueCount     int      `json:"uniqueCount"`
	NullCount       int      `json:"nullCount"`
	Parent          string   `json:"parent,omitempty"` // Parent dimension key for hierarchies
	IsTemporal      bool     `json:"isTemporal,omitempty"`
	TemporalFormat  string   `json:"temporalFormat,omitempty"`
	IsCurrencyCode  bool     `json:"isCurrencyCode,omitempty"`
	CardinalityHint string   `json:"cardinalityHint,omitempty"` // "low", "medium", "high"
}

// MeasureMeta describes a numeric field summed into cells.
type MeasureMeta struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	HasDecimals bool   `json:"hasDecimals,omitempty"`
	NullCount   int    `json:"nullCount"`
}

// SkippedColumn records why a column was excluded during auto-discovery.
type SkippedColumn struct {
	Column      string `json:"column"`
	Reason      string `json:"reason"`
	Recoverable bool   `json:"recoverable"` // Can be restored if consumer overrides
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Suggest proposes a pivot over the discovered schema:
//   - columns: a low-cardinality temporal dimension if one exists, otherwise
//     the dimension with the fewest distinct values
//   - rows: the remaining dimension with the most distinct values that is not
//     high-cardinality, falling back to the first remaining one
//   - measures: every discovered measure
//
// Fails with engine.ErrInvalidConfig when fewer than two dimensions or no
// measure were found.
func (c Config) Suggest() (engine.Config, error) {
	if len(c.Measures) == 0 {
		return engine.Config{}, errors.Wrap(engine.ErrInvalidConfig, "no numeric measure discovered")
	}
	if len(c.Dimensions) < 2 {
		return engine.Config{}, errors.Wrapf(engine.ErrInvalidConfig,
			"need at least two dimensions to pivot, discovered %d", len(c.Dimensions))
	}

	dims := make([]DimensionMeta, len(c.Dimensions))
	copy(dims, c.Dimensions)
	sort.SliceStable(dims, func(i, j int) bool { return dims[i].UniqueCount < dims[j].UniqueCount })

	col := -1
	for i, d := range dims {
		if d.IsTemporal && d.CardinalityHint != "high" {
			col = i
			break
		}
	}
	if col < 0 {
		col = 0
	}

	row := -1
	for i := len(dims) - 1; i >= 0; i-- {
		if i != col && dims[i].CardinalityHint != "high" {
			row = i
			break
		}
	}
	if row < 0 {
		row = 0
		if col == 0 {
			row = 1
		}
	}

	return engine.Config{
		RowFields:     []string{dims[row].Key},
		ColumnFields:  []string{dims[col].Key},
		MeasureFields: c.MeasureKeys(),
	}, nil
}
