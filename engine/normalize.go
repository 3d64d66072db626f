package engine

import (
	"strings"

	"github.com/pkg/errors"
)

// ============================================================================
// INPUT NORMALIZER
// ============================================================================
// Structural problems are fatal and returned as errors wrapping one of the
// sentinels below. Nothing is ever substituted for invalid input.
// ============================================================================

var (
	// ErrInvalidDataset: the dataset is not a sequence of record-like values.
	ErrInvalidDataset = errors.New("invalid dataset")
	// ErrInvalidConfig: a required field list is empty or malformed.
	ErrInvalidConfig = errors.New("invalid config")
)

// Normalize converts untyped records into a Dataset.
// Every value must be a scalar accepted by FromAny.
func Normalize(raw []map[string]any) (Dataset, error) {
	ds := make(Dataset, 0, len(raw))
	for i, rec := range raw {
		if rec == nil {
			return nil, errors.Wrapf(ErrInvalidDataset, "record %d is nil", i)
		}
		r, err := normalizeRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidDataset, "record %d: %v", i, err)
		}
		ds = append(ds, r)
	}
	return ds, nil
}

// NormalizeAny accepts the shapes a JSON decoder or a caller may hand over:
// Dataset, []Record, []map[string]any or []any of maps. A nil input is an
// empty dataset.
func NormalizeAny(raw any) (Dataset, error) {
	switch t := raw.(type) {
	case nil:
		return Dataset{}, nil
	case Dataset:
		return t, nil
	case []Record:
		return Dataset(t), nil
	case []map[string]any:
		return Normalize(t)
	case []any:
		recs := make([]map[string]any, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Wrapf(ErrInvalidDataset, "element %d is %T, not a record", i, item)
			}
			recs[i] = m
		}
		return Normalize(recs)
	default:
		return nil, errors.Wrapf(ErrInvalidDataset, "%T is not a sequence of records", raw)
	}
}

func normalizeRecord(rec map[string]any) (Record, error) {
	r := make(Record, len(rec))
	for field, raw := range rec {
		v, err := FromAny(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", field)
		}
		r[field] = v
	}
	return r, nil
}

// ValidateConfig checks that every required field list is non-empty and
// holds only non-blank names.
func ValidateConfig(cfg Config) error {
	lists := []struct {
		name   string
		fields []string
	}{
		{"rowFields", cfg.RowFields},
		{"columnFields", cfg.ColumnFields},
		{"measureFields", cfg.MeasureFields},
	}
	for _, l := range lists {
		if len(l.fields) == 0 {
			return errors.Wrapf(ErrInvalidConfig, "%s is empty", l.name)
		}
		for i, f := range l.fields {
			if strings.TrimSpace(f) == "" {
				return errors.Wrapf(ErrInvalidConfig, "%s[%d] is blank", l.name, i)
			}
		}
	}
	for field := range cfg.Filters {
		if strings.TrimSpace(field) == "" {
			return errors.Wrap(ErrInvalidConfig, "filter on blank field name")
		}
	}
	return nil
}

// normalizeConfig copies cfg so later caller edits cannot leak into a run.
func normalizeConfig(cfg Config) Config {
	out := Config{
		RowFields:     append([]string(nil), cfg.RowFields...),
		ColumnFields:  append([]string(nil), cfg.ColumnFields...),
		MeasureFields: append([]string(nil), cfg.MeasureFields...),
		Filters:       cfg.ActiveFilters(),
	}
	return out
}
