package helpers

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/crosstab/engine"
)

// ParseJSON decodes a JSON array of flat objects into a Dataset.
// Numbers keep full precision until converted to float64 by the engine.
// Empty input is an empty Dataset; a top-level null or anything after the
// array is ErrInvalidDataset.
func ParseJSON(data []byte) (engine.Dataset, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ReadJSON is ParseJSON over a reader.
func ReadJSON(r io.Reader) (engine.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return engine.Dataset{}, nil
		}
		return nil, errors.Wrap(err, "decode json dataset")
	}
	if raw == nil {
		return nil, errors.Wrap(engine.ErrInvalidDataset, "json dataset is null")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(engine.ErrInvalidDataset, "trailing data after json dataset")
	}
	return engine.NormalizeAny(raw)
}

// LoadFile reads a dataset from disk, choosing the parser by extension:
// .json for JSON, .tsv for tab-separated, anything else as CSV.
func LoadFile(path string, opts CSVOptions) (engine.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		ds, err := ReadJSON(f)
		return ds, errors.Wrapf(err, "load %s", path)
	case ".tsv":
		opts.Comma = '\t'
	}
	ds, _, err := ReadCSV(f, opts)
	return ds, errors.Wrapf(err, "load %s", path)
}
