// Package config loads pivot definitions from YAML or JSON files.
//
// Example:
//
//	rows: [region]
//	columns: [product]
//	measures: [amount]
//	filters:
//	  desk: Rates
//	  live: true
//	  book: all
//	options:
//	  workers: 4
//	  labelSeparator: " / "
//	  cacheSize: 64
//	  places: 2
//
// JSON is a subset of YAML, so the same loader reads both.
package config

import (
	"bytes"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/crosstab/engine"
)

// File is one pivot definition as written on disk.
type File struct {
	Rows     []string       `yaml:"rows" json:"rows"`
	Columns  []string       `yaml:"columns" json:"columns"`
	Measures []string       `yaml:"measures" json:"measures"`
	Filters  map[string]any `yaml:"filters,omitempty" json:"filters,omitempty"`
	Options  Options        `yaml:"options,omitempty" json:"options,omitempty"`
}

// Options tunes execution and output. Zero values mean engine defaults.
type Options struct {
	Workers        int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	LabelSeparator string `yaml:"labelSeparator,omitempty" json:"labelSeparator,omitempty"`
	CacheSize      int    `yaml:"cacheSize,omitempty" json:"cacheSize,omitempty"`
	DatasetID      string `yaml:"datasetId,omitempty" json:"datasetId,omitempty"`
	Places         *int32 `yaml:"places,omitempty" json:"places,omitempty"`
}

// DefaultPlaces is used when Options.Places is unset.
const DefaultPlaces int32 = 2

// Load reads and validates a pivot definition from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	return f, nil
}

// Parse decodes and validates a pivot definition. Unknown keys are rejected
// so typos surface instead of silently widening the pivot.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, errors.Wrap(engine.ErrInvalidConfig, "empty config")
		}
		return nil, errors.Wrapf(engine.ErrInvalidConfig, "decode: %v", err)
	}
	if _, err := f.EngineConfig(); err != nil {
		return nil, err
	}
	if f.Options.Workers < 0 || f.Options.CacheSize < 0 {
		return nil, errors.Wrap(engine.ErrInvalidConfig, "options.workers and options.cacheSize must not be negative")
	}
	if f.Options.Places != nil && (*f.Options.Places < 0 || *f.Options.Places > 12) {
		return nil, errors.Wrapf(engine.ErrInvalidConfig, "options.places %d out of range 0..12", *f.Options.Places)
	}
	return &f, nil
}

// EngineConfig converts the file into an engine.Config. Filter values must
// be scalars; "all" leaves a field unconstrained.
func (f *File) EngineConfig() (engine.Config, error) {
	cfg := engine.Config{
		RowFields:     f.Rows,
		ColumnFields:  f.Columns,
		MeasureFields: f.Measures,
	}
	if len(f.Filters) > 0 {
		cfg.Filters = make(map[string]engine.Value, len(f.Filters))
		for field, raw := range f.Filters {
			v, err := engine.FromAny(raw)
			if err != nil {
				return engine.Config{}, errors.Wrapf(engine.ErrInvalidConfig, "filter %q: %v", field, err)
			}
			cfg.Filters[field] = v
		}
	}
	if err := engine.ValidateConfig(cfg); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

// EngineOptions translates Options into engine options, routing logs to
// logger. A positive CacheSize attaches a fresh DimensionCache.
func (f *File) EngineOptions(logger *log.Logger) []engine.Option {
	opts := []engine.Option{engine.WithLogger(logger)}
	if f.Options.Workers > 0 {
		opts = append(opts, engine.WithConcurrency(f.Options.Workers))
	}
	if f.Options.LabelSeparator != "" {
		opts = append(opts, engine.WithLabelSeparator(f.Options.LabelSeparator))
	}
	if f.Options.CacheSize > 0 {
		opts = append(opts, engine.WithDimensionCache(engine.NewDimensionCache(f.Options.CacheSize)))
	}
	if f.Options.DatasetID != "" {
		opts = append(opts, engine.WithDatasetID(f.Options.DatasetID))
	}
	return opts
}

// OutputPlaces returns the configured decimal places, or DefaultPlaces.
func (f *File) OutputPlaces() int32 {
	if f.Options.Places == nil {
		return DefaultPlaces
	}
	return *f.Options.Places
}

// Marshal renders the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(f)
	return out, errors.Wrap(err, "encode config")
}

// FromEngine builds a File from an engine.Config, e.g. a discovered suggestion.
func FromEngine(cfg engine.Config) *File {
	f := &File{
		Rows:     append([]string(nil), cfg.RowFields...),
		Columns:  append([]string(nil), cfg.ColumnFields...),
		Measures: append([]string(nil), cfg.MeasureFields...),
	}
	if len(cfg.Filters) > 0 {
		f.Filters = make(map[string]any, len(cfg.Filters))
		for field, v := range cfg.Filters {
			f.Filters[field] = v.Interface()
		}
	}
	return f
}
