package engine

import (
	"log"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger         *log.Logger
	Workers        int             // row workers for the aggregation step; <= 1 runs inline
	Aggregator     Aggregator      // cell aggregation, Sum unless overridden
	Cache          *DimensionCache // optional analyzer memoization
	DatasetID      string          // caller-supplied dataset identity for the cache
	LabelSeparator string          // joins combination components into labels
}

// DefaultLabelSeparator joins combination components in header labels.
const DefaultLabelSeparator = " - "

// WithLogger routes engine progress logs to l. Pass a logger writing to
// io.Discard to silence them.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithConcurrency aggregates rows on up to n workers.
func WithConcurrency(n int) Option {
	return func(c *config) {
		c.Workers = n
	}
}

// WithAggregator replaces Sum with a custom aggregator.
func WithAggregator(a Aggregator) Option {
	return func(c *config) {
		c.Aggregator = a
	}
}

// WithDimensionCache memoizes the Dimension Analyzer across calls.
// Without WithDatasetID, each configured row and column field is keyed by a
// hash of its own column, so every call still reads those columns once.
// Supply WithDatasetID to skip that scan.
func WithDimensionCache(cache *DimensionCache) Option {
	return func(c *config) {
		c.Cache = cache
	}
}

// WithDatasetID identifies the dataset for the cache without hashing it.
// The caller must change the ID whenever the dataset's content changes.
func WithDatasetID(id string) Option {
	return func(c *config) {
		c.DatasetID = id
	}
}

// WithLabelSeparator sets the separator used in header labels.
func WithLabelSeparator(sep string) Option {
	return func(c *config) {
		c.LabelSeparator = sep
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:         log.Default(),
		Workers:        1,
		Aggregator:     Sum,
		LabelSeparator: DefaultLabelSeparator,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Aggregator == nil {
		cfg.Aggregator = Sum
	}
	return cfg
}
