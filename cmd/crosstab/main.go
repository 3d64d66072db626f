package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"github.com/spektr-org/crosstab/config"
	"github.com/spektr-org/crosstab/engine"
	"github.com/spektr-org/crosstab/helpers"
	"github.com/spektr-org/crosstab/schema"
)

// ============================================================================
// CROSSTAB CLI — Pivot any CSV/JSON dataset from the command line
// ============================================================================

const version = "0.1.0"

const usageHeader = `Crosstab — pivot tables for any dataset

Usage:
  crosstab --file sales.csv --rows region --cols product --measures revenue
  crosstab --file sales.csv --config pivot.yaml --format csv --out pivot.csv
  crosstab --file sales.csv --discover --format pretty
  crosstab --file sales.csv --suggest > pivot.yaml

Flags:
`

const usageFooter = `
Formats:
  json      Full JSON result (default)
  pretty    Pretty-printed JSON
  csv       One table per measure, ready for Sheets/Excel
  text      Short prose summary per measure
  chart     Chart series JSON per measure

Without --config, --rows, --cols or --measures the pivot is suggested from
the discovered schema.
`

// filterFlags collects repeatable --filter field=value pairs. Values stay raw
// until the data is loaded, so they are typed like the column they filter.
type filterFlags map[string]string

func (f filterFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f filterFlags) Set(s string) error {
	field, raw, ok := strings.Cut(s, "=")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return errors.Errorf("filter %q: want field=value", s)
	}
	f[field] = raw
	return nil
}

// typed converts the raw values with the same cell rules the loader used.
func (f filterFlags) typed(opts helpers.CSVOptions) map[string]engine.Value {
	out := make(map[string]engine.Value, len(f))
	for field, raw := range f {
		out[field] = opts.ParseCell(field, raw)
	}
	return out
}

type cliOptions struct {
	filePath   string
	configPath string
	rows       string
	cols       string
	measures   string
	filters    filterFlags
	textCols   string
	discover   bool
	suggest    bool
	format     string
	outFile    string
	workers    int
	sep        string
	places     int
	lang       string
	quiet      bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	// ── Flags ─────────────────────────────────────────────────────────────
	fs := flag.NewFlagSet("crosstab", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opt := cliOptions{filters: filterFlags{}}
	fs.StringVar(&opt.filePath, "file", "", "Path to CSV, TSV or JSON data file (required)")
	fs.StringVar(&opt.configPath, "config", "", "Path to a YAML/JSON pivot definition")
	fs.StringVar(&opt.rows, "rows", "", "Comma-separated row fields")
	fs.StringVar(&opt.cols, "cols", "", "Comma-separated column fields")
	fs.StringVar(&opt.measures, "measures", "", "Comma-separated measure fields")
	fs.Var(opt.filters, "filter", "Filter as field=value (repeatable; value \"all\" means no constraint)")
	fs.StringVar(&opt.textCols, "text-cols", "", "Comma-separated CSV columns kept as text")
	fs.BoolVar(&opt.discover, "discover", false, "Print the discovered schema and exit")
	fs.BoolVar(&opt.suggest, "suggest", false, "Print a suggested pivot definition (YAML) and exit")
	fs.StringVar(&opt.format, "format", "json", "Output format: json, pretty, csv, text, chart")
	fs.StringVar(&opt.outFile, "out", "", "Write output to file instead of stdout")
	fs.IntVar(&opt.workers, "workers", 0, "Row aggregation workers (0 = config or sequential)")
	fs.StringVar(&opt.sep, "sep", "", "Separator for multi-field header labels")
	fs.IntVar(&opt.places, "places", -1, "Decimal places in csv output (-1 = config or 2)")
	fs.StringVar(&opt.lang, "lang", "en", "Language tag for number formatting in text output")
	fs.BoolVar(&opt.quiet, "quiet", false, "Suppress progress logs")
	showVersion := fs.Bool("version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageHeader)
		fs.PrintDefaults()
		fmt.Fprint(stderr, usageFooter)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "crosstab %s\n", version)
		return nil
	}

	if opt.filePath == "" {
		fs.Usage()
		return errors.New("--file is required")
	}

	logger := log.New(stderr, "", log.LstdFlags)
	if opt.quiet {
		logger = log.New(io.Discard, "", 0)
	}

	// ── Output writer ─────────────────────────────────────────────────────
	writer := stdout
	if opt.outFile != "" {
		f, err := os.Create(opt.outFile)
		if err != nil {
			return errors.Wrap(err, "create output file")
		}
		defer f.Close()
		writer = f
	}

	// ── Read data ─────────────────────────────────────────────────────────
	csvOpts := helpers.CSVOptions{TextColumns: splitList(opt.textCols)}
	ds, err := helpers.LoadFile(opt.filePath, csvOpts)
	if err != nil {
		return err
	}
	logger.Printf("📊 Loaded %d records from %s", len(ds), opt.filePath)

	// ── Discover / suggest mode ───────────────────────────────────────────
	if opt.discover || opt.suggest {
		sch, err := schema.Discover(engine.NewSliceView(ds))
		if err != nil {
			return errors.Wrap(err, "auto-detect")
		}
		logger.Printf("🔍 Auto-Detect: %s (%d dims, %d measures, %d skipped)",
			sch.Name, len(sch.Dimensions), len(sch.Measures), len(sch.SkippedColumns))
		if opt.discover {
			return writeJSON(writer, sch, opt.format)
		}
		cfg, err := sch.Suggest()
		if err != nil {
			return err
		}
		out, err := config.FromEngine(cfg).Marshal()
		if err != nil {
			return err
		}
		_, err = writer.Write(out)
		return err
	}

	// ── Pivot definition ──────────────────────────────────────────────────
	file, err := resolvePivot(opt, opt.filters.typed(csvOpts), ds, logger)
	if err != nil {
		return err
	}
	cfg, err := file.EngineConfig()
	if err != nil {
		return err
	}

	// ── Execute ───────────────────────────────────────────────────────────
	res, err := engine.Execute(ds, cfg, file.EngineOptions(logger)...)
	if err != nil {
		return errors.Wrap(err, "execute")
	}
	logger.Printf("✅ Pivot: %d rows × %d columns, %d measure(s), %d warning(s)",
		len(res.Rows), len(res.Columns), len(res.Measures), len(res.Warnings))

	// ── Render output ─────────────────────────────────────────────────────
	return render(writer, res, opt, file.OutputPlaces())
}

// resolvePivot builds the pivot definition from --config, then flag
// overrides, falling back to a discovered suggestion when nothing is given.
func resolvePivot(opt cliOptions, filters map[string]engine.Value, ds engine.Dataset, logger *log.Logger) (*config.File, error) {
	var file *config.File
	switch {
	case opt.configPath != "":
		f, err := config.Load(opt.configPath)
		if err != nil {
			return nil, err
		}
		file = f
		logger.Printf("📋 Loaded pivot: rows=%v columns=%v measures=%v", f.Rows, f.Columns, f.Measures)

	case opt.rows == "" && opt.cols == "" && opt.measures == "":
		sch, err := schema.Discover(engine.NewSliceView(ds))
		if err != nil {
			return nil, errors.Wrap(err, "auto-detect")
		}
		cfg, err := sch.Suggest()
		if err != nil {
			return nil, err
		}
		file = config.FromEngine(cfg)
		logger.Printf("🧭 Suggested pivot: rows=%v columns=%v measures=%v", file.Rows, file.Columns, file.Measures)

	default:
		file = &config.File{}
	}

	if v := splitList(opt.rows); len(v) > 0 {
		file.Rows = v
	}
	if v := splitList(opt.cols); len(v) > 0 {
		file.Columns = v
	}
	if v := splitList(opt.measures); len(v) > 0 {
		file.Measures = v
	}
	if len(filters) > 0 && file.Filters == nil {
		file.Filters = make(map[string]any, len(filters))
	}
	for field, v := range filters {
		file.Filters[field] = v.Interface()
	}
	if opt.workers > 0 {
		file.Options.Workers = opt.workers
	}
	if opt.sep != "" {
		file.Options.LabelSeparator = opt.sep
	}
	if opt.places >= 0 {
		p := int32(opt.places)
		file.Options.Places = &p
	}
	return file, nil
}

func render(w io.Writer, res *engine.Result, opt cliOptions, places int32) error {
	switch opt.format {
	case "json", "pretty":
		return writeJSON(w, res, opt.format)

	case "csv":
		for i, t := range helpers.BuildTables(res, places) {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if err := helpers.WriteTableCSV(w, t); err != nil {
				return err
			}
		}
		return nil

	case "text":
		tag, err := language.Parse(opt.lang)
		if err != nil {
			return errors.Wrapf(err, "--lang %q", opt.lang)
		}
		for _, m := range res.Measures {
			fmt.Fprintln(w, helpers.Summarize(res, m.Measure, tag).String())
		}
		return nil

	case "chart":
		charts := make([]*helpers.ChartConfig, 0, len(res.Measures))
		for _, m := range res.Measures {
			if c := helpers.BuildChart(res, m.Measure); c != nil {
				charts = append(charts, c)
			}
		}
		return writeJSON(w, charts, "pretty")

	default:
		return errors.Errorf("unknown format %q", opt.format)
	}
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v any, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
