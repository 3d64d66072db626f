package helpers

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/crosstab/engine"
)

var tradesCSV = []byte(`Région,Product Line,Amount,Live,Code
EMEA,FX,100,true,007
APAC,Rates,50.5,FALSE,
EMEA,FX,abc,yes,010
`)

func TestParseCSVInfersTypes(t *testing.T) {
	ds, keys, err := ParseCSV(tradesCSV, CSVOptions{TextColumns: []string{"code"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "product_line", "amount", "live", "code"}, keys)
	require.Len(t, ds, 3)

	assert.True(t, ds[0]["amount"].Equal(engine.Number(100)))
	assert.True(t, ds[0]["live"].Equal(engine.Bool(true)))
	assert.True(t, ds[0]["code"].Equal(engine.Text("007")))
	assert.True(t, ds[1]["live"].Equal(engine.Bool(false)))
	assert.True(t, ds[1]["code"].IsNull())
	assert.True(t, ds[2]["amount"].Equal(engine.Text("abc")))
	assert.True(t, ds[2]["live"].Equal(engine.Text("yes")))
}

func TestParseCSVEdgeCases(t *testing.T) {
	ds, keys, err := ParseCSV(nil, CSVOptions{})
	require.NoError(t, err)
	assert.Empty(t, ds)
	assert.Nil(t, keys)

	ds, keys, err = ParseCSV([]byte("a,a,,b\n1,2,3\n"), CSVOptions{NullTokens: []string{"NA"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_2", "col_3", "b"}, keys)
	_, has := ds[0]["b"]
	assert.False(t, has, "short rows leave trailing fields absent")

	ds, _, err = ParseCSV([]byte("a\nNA\nInf\n"), CSVOptions{NullTokens: []string{"NA"}})
	require.NoError(t, err)
	assert.True(t, ds[0]["a"].IsNull())
	assert.True(t, ds[1]["a"].Equal(engine.Text("Inf")))

	_, _, err = ParseCSV([]byte("a\n1,2\n"), CSVOptions{})
	assert.ErrorIs(t, err, engine.ErrInvalidDataset)

	_, _, err = ParseCSV([]byte("a\n\"unterminated\n"), CSVOptions{})
	assert.Error(t, err)
}

func TestCSVOptionsParseCell(t *testing.T) {
	opts := CSVOptions{TextColumns: []string{"code"}, NullTokens: []string{"n/a"}}
	ds, _, err := ParseCSV(tradesCSV, opts)
	require.NoError(t, err)

	assert.True(t, opts.ParseCell("code", "007").Equal(ds[0]["code"]))
	assert.True(t, opts.ParseCell("amount", "100").Equal(ds[0]["amount"]))
	assert.True(t, opts.ParseCell("live", "TRUE").Equal(engine.Bool(true)))
	assert.True(t, opts.ParseCell("region", "n/a").IsNull())
	assert.True(t, CSVOptions{}.ParseCell("code", "007").Equal(engine.Number(7)))
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Column Name":      "column_name",
		"  Région  ":       "region",
		"Unit-Price (USD)": "unit_price_usd",
		"a.b/c":            "a_b_c",
		"___":              "",
		"unitPrice":        "unit_price",
		"StoryPoints":      "story_points",
		"Q3Revenue":        "q3_revenue",
		"ID":               "id",
		"créditNote":       "credit_note",
	}
	for in, want := range tests {
		assert.Equal(t, want, toSnakeCase(in), in)
	}
}

func TestParseJSON(t *testing.T) {
	ds, err := ParseJSON([]byte(`[{"region":"EMEA","amount":100.25},{"region":null,"live":true}]`))
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.True(t, ds[0]["amount"].Equal(engine.Number(100.25)))
	assert.True(t, ds[1]["region"].IsNull())

	ds, err = ParseJSON(nil)
	require.NoError(t, err)
	assert.Empty(t, ds)

	_, err = ParseJSON([]byte(`{"region":"EMEA"}`))
	assert.ErrorIs(t, err, engine.ErrInvalidDataset)

	_, err = ParseJSON([]byte(`[{"tags":["a"]}]`))
	assert.ErrorIs(t, err, engine.ErrInvalidDataset)

	for _, in := range []string{`null`, `[{"a":1}] [{"a":2}]`, `[{"a":1}]]`, `[] x`} {
		_, err = ParseJSON([]byte(in))
		assert.ErrorIs(t, err, engine.ErrInvalidDataset, in)
	}

	ds, err = ParseJSON([]byte("[{\"a\":1}]\n\n"))
	require.NoError(t, err)
	assert.Len(t, ds, 1)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trades.csv")
	tsvPath := filepath.Join(dir, "trades.tsv")
	jsonPath := filepath.Join(dir, "trades.json")
	require.NoError(t, os.WriteFile(csvPath, tradesCSV, 0o600))
	require.NoError(t, os.WriteFile(tsvPath, []byte("region\tamount\nEMEA\t1\n"), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"region":"EMEA"}]`), 0o600))

	ds, err := LoadFile(csvPath, CSVOptions{})
	require.NoError(t, err)
	assert.Len(t, ds, 3)

	ds, err = LoadFile(tsvPath, CSVOptions{})
	require.NoError(t, err)
	assert.True(t, ds[0]["amount"].Equal(engine.Number(1)))

	ds, err = LoadFile(jsonPath, CSVOptions{})
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}

func TestWriteTableCSV(t *testing.T) {
	res := pivot(t)
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, BuildTable(res, "", 2)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Region,FX,Rates,Total", lines[0])
	assert.Equal(t, "EMEA,300.00,0.00,300.00", lines[1])
	assert.Equal(t, "APAC,0.00,50.00,50.00", lines[2])
	assert.Equal(t, "Total,300.00,50.00,350.00", lines[3])

	assert.Error(t, WriteTableCSV(&buf, nil))
}
