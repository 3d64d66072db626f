package engine

import (
	"encoding/json"
	"io"
	"log"
	"math"
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// EXECUTOR TESTS
// ============================================================================

var quiet = WithLogger(log.New(io.Discard, "", 0))

func tradesDataset() Dataset {
	return Dataset{
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Number(100)},
		{"region": Text("EMEA"), "product": Text("Rates"), "amount": Number(50)},
		{"region": Text("APAC"), "product": Text("FX"), "amount": Number(200)},
	}
}

func tradesConfig() Config {
	return Config{
		RowFields:     []string{"region"},
		ColumnFields:  []string{"product"},
		MeasureFields: []string{"amount"},
	}
}

func labels(headers []Header) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = h.Label
	}
	return out
}

func TestExecuteRegionByProduct(t *testing.T) {
	res, err := Execute(tradesDataset(), tradesConfig(), quiet)
	require.NoError(t, err)

	assert.Equal(t, []string{"EMEA", "APAC"}, labels(res.Rows))
	assert.Equal(t, []string{"FX", "Rates"}, labels(res.Columns))

	m := res.Primary()
	require.NotNil(t, m)
	assert.Equal(t, [][]float64{{100, 50}, {200, 0}}, m.Cells)
	assert.Equal(t, []float64{150, 200}, m.RowTotals)
	assert.Equal(t, []float64{300, 50}, m.ColumnTotals)
	assert.Equal(t, 350.0, m.GrandTotal)
	assert.Equal(t, "sum", m.Aggregation)
	assert.Empty(t, res.Warnings)
}

func TestExecuteFilterKeepsAxes(t *testing.T) {
	cfg := tradesConfig()
	cfg.Filters = map[string]Value{"region": Text("EMEA")}

	res, err := Execute(tradesDataset(), cfg, quiet)
	require.NoError(t, err)

	assert.Equal(t, []string{"EMEA", "APAC"}, labels(res.Rows))
	assert.Equal(t, []string{"FX", "Rates"}, labels(res.Columns))

	m := res.Primary()
	apac := res.RowIndex(Text("APAC"))
	require.GreaterOrEqual(t, apac, 0)
	assert.Equal(t, []float64{0, 0}, m.Cells[apac])
	assert.Equal(t, 0.0, m.RowTotals[apac])
	assert.Equal(t, 150.0, m.RowTotals[res.RowIndex(Text("EMEA"))])
	assert.Equal(t, 150.0, m.GrandTotal)
}

func TestExecuteAllSentinelIsUnconstrained(t *testing.T) {
	cfg := tradesConfig()
	cfg.Filters = map[string]Value{"region": Text(AllValues)}

	res, err := Execute(tradesDataset(), cfg, quiet)
	require.NoError(t, err)
	assert.Equal(t, 350.0, res.Primary().GrandTotal)
}

func TestExecuteEmptyDataset(t *testing.T) {
	for _, ds := range []Dataset{nil, {}} {
		res, err := Execute(ds, tradesConfig(), quiet)
		require.NoError(t, err)
		assert.Empty(t, res.Rows)
		assert.Empty(t, res.Columns)
		m := res.Primary()
		require.NotNil(t, m)
		assert.Empty(t, m.Cells)
		assert.Empty(t, m.RowTotals)
		assert.Empty(t, m.ColumnTotals)
		assert.Zero(t, m.GrandTotal)
		assert.Empty(t, res.Warnings)
	}
}

func TestExecuteInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no rows", Config{ColumnFields: []string{"product"}, MeasureFields: []string{"amount"}}},
		{"no columns", Config{RowFields: []string{"region"}, MeasureFields: []string{"amount"}}},
		{"no measures", Config{RowFields: []string{"region"}, ColumnFields: []string{"product"}}},
		{"blank row field", Config{RowFields: []string{" "}, ColumnFields: []string{"product"}, MeasureFields: []string{"amount"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Execute(tradesDataset(), tt.cfg, quiet)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, res)
		})
	}
}

func TestExecuteInvalidConfigOnEmptyDataset(t *testing.T) {
	_, err := Execute(Dataset{}, Config{}, quiet)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExecuteNilView(t *testing.T) {
	_, err := ExecuteView(nil, tradesConfig(), quiet)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	var sv *SliceView
	_, err = ExecuteView(sv, tradesConfig(), quiet)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	var dv *DomainView[int]
	_, err = ExecuteView(dv, tradesConfig(), quiet)
	assert.ErrorIs(t, err, ErrInvalidDataset)

	var sub *SubView
	assert.Equal(t, 0, sv.Len())
	assert.Equal(t, 0, sub.Len())
	assert.Equal(t, 0, dv.Len())
	assert.Nil(t, sv.Fields())
	_, ok := sub.Value(0, "region")
	assert.False(t, ok)
}

func TestExecuteUnknownFieldWarns(t *testing.T) {
	cfg := tradesConfig()
	cfg.ColumnFields = []string{"desk"}

	res, err := Execute(tradesDataset(), cfg, quiet)
	require.NoError(t, err)

	require.Len(t, res.Columns, 1)
	assert.True(t, res.Columns[0].Values[0].IsNull())
	assert.Equal(t, 350.0, res.Primary().GrandTotal)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnUnknownField, res.Warnings[0].Kind)
	assert.Equal(t, "desk", res.Warnings[0].Field)
	assert.NotEmpty(t, res.Warnings[0].Message)
}

func TestExecuteMissingFieldGroupsUnderNull(t *testing.T) {
	ds := append(tradesDataset(), Record{"product": Text("FX"), "amount": Number(7)})

	res, err := Execute(ds, tradesConfig(), quiet)
	require.NoError(t, err)

	require.Len(t, res.Rows, 3)
	nullRow := res.RowIndex(Null())
	require.Equal(t, 2, nullRow)
	assert.Equal(t, 7.0, res.Primary().Cell(nullRow, res.ColumnIndex(Text("FX"))))

	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, WarnMissingField, w.Kind)
	assert.Equal(t, "region", w.Field)
	assert.Equal(t, 1, w.Count)
	assert.Equal(t, 3, w.FirstRecord)
}

func TestExecuteMeasureCoercion(t *testing.T) {
	ds := Dataset{
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Text(" 12.5 ")},
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Text("n/a")},
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Bool(true)},
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Null()},
		{"region": Text("EMEA"), "product": Text("FX")},
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Text("Inf")},
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Number(0.5)},
	}
	res, err := Execute(ds, tradesConfig(), quiet)
	require.NoError(t, err)
	assert.Equal(t, 13.0, res.Primary().GrandTotal)

	require.Len(t, res.Warnings, 1)
	w := res.Warnings[0]
	assert.Equal(t, WarnNonNumericMeasure, w.Kind)
	assert.Equal(t, 5, w.Count)
	assert.Equal(t, 1, w.FirstRecord)
}

func TestExecuteNonFiniteMeasuresAreCoerced(t *testing.T) {
	ds := Dataset{
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Number(math.NaN())},
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Number(math.Inf(1))},
		{"region": Text("APAC"), "product": Text("Rates"), "amount": Number(math.Inf(-1))},
		{"region": Text("APAC"), "product": Text("FX"), "amount": Number(4)},
	}
	res, err := Execute(ds, tradesConfig(), quiet)
	require.NoError(t, err)
	assert.Equal(t, 4.0, res.Primary().GrandTotal)
	assert.True(t, TotalsConsistent(res.Primary(), 0))

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnNonNumericMeasure, res.Warnings[0].Kind)
	assert.Equal(t, 3, res.Warnings[0].Count)
	assert.Equal(t, 0, res.Warnings[0].FirstRecord)

	_, err = json.Marshal(res)
	assert.NoError(t, err)
}

func TestExecuteStrictEquality(t *testing.T) {
	ds := Dataset{
		{"code": Number(5), "side": Text("buy"), "qty": Number(1)},
		{"code": Text("5"), "side": Text("buy"), "qty": Number(2)},
	}
	cfg := Config{RowFields: []string{"code"}, ColumnFields: []string{"side"}, MeasureFields: []string{"qty"}}

	res, err := Execute(ds, cfg, quiet)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []float64{1, 2}, res.Primary().RowTotals)

	cfg.Filters = map[string]Value{"code": Text("5")}
	res, err = Execute(ds, cfg, quiet)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Primary().GrandTotal)
}

func TestExecuteMultipleMeasures(t *testing.T) {
	ds := Dataset{
		{"region": Text("EMEA"), "product": Text("FX"), "amount": Number(100), "qty": Number(1)},
		{"region": Text("APAC"), "product": Text("FX"), "amount": Number(200), "qty": Number(3)},
	}
	cfg := tradesConfig()
	cfg.MeasureFields = []string{"amount", "qty"}

	res, err := Execute(ds, cfg, quiet)
	require.NoError(t, err)
	require.Len(t, res.Measures, 2)

	qty, ok := res.Matrix("qty")
	require.True(t, ok)
	assert.Equal(t, [][]float64{{1}, {3}}, qty.Cells)
	assert.Equal(t, 4.0, qty.GrandTotal)
	assert.Equal(t, 300.0, res.Primary().GrandTotal)

	_, ok = res.Matrix("missing")
	assert.False(t, ok)
}

func TestExecuteMultiFieldAxes(t *testing.T) {
	ds := Dataset{
		{"region": Text("EMEA"), "desk": Text("A"), "product": Text("FX"), "year": Number(2025), "amount": Number(10)},
		{"region": Text("APAC"), "desk": Text("B"), "product": Text("Rates"), "year": Number(2026), "amount": Number(20)},
		{"region": Text("EMEA"), "desk": Text("B"), "product": Text("FX"), "year": Number(2026), "amount": Number(5)},
	}
	cfg := Config{
		RowFields:     []string{"region", "desk"},
		ColumnFields:  []string{"product", "year"},
		MeasureFields: []string{"amount"},
	}

	res, err := Execute(ds, cfg, quiet, WithLabelSeparator("/"))
	require.NoError(t, err)

	assert.Equal(t, []string{"EMEA/A", "EMEA/B", "APAC/A", "APAC/B"}, labels(res.Rows))
	assert.Equal(t, []string{"FX/2025", "FX/2026", "Rates/2025", "Rates/2026"}, labels(res.Columns))
	for _, h := range append(res.Rows, res.Columns...) {
		assert.Len(t, h.Values, 2)
	}

	m := res.Primary()
	require.Len(t, m.Cells, 4)
	for _, row := range m.Cells {
		assert.Len(t, row, 4)
	}
	r := res.RowIndex(Text("EMEA"), Text("B"))
	c := res.ColumnIndex(Text("FX"), Number(2026))
	assert.Equal(t, 5.0, m.Cell(r, c))
	assert.Equal(t, 35.0, m.GrandTotal)
}

type countAggregator struct{}

func (countAggregator) Name() string                { return "count" }
func (countAggregator) NewAccumulator() Accumulator { return &countAccumulator{} }

type countAccumulator struct{ n float64 }

func (a *countAccumulator) Add(float64)     { a.n++ }
func (a *countAccumulator) Result() float64 { return a.n }

func TestExecuteCustomAggregator(t *testing.T) {
	res, err := Execute(tradesDataset(), tradesConfig(), quiet, WithAggregator(countAggregator{}))
	require.NoError(t, err)

	m := res.Primary()
	assert.Equal(t, "count", m.Aggregation)
	assert.Equal(t, [][]float64{{1, 1}, {1, 0}}, m.Cells)
	assert.Equal(t, 3.0, m.GrandTotal)
}

func TestExecuteDomainAdapter(t *testing.T) {
	type trade struct {
		Region, Product string
		Amount          float64
	}
	view := NewDomainAdapter[trade]().
		Field("region", func(t trade) Value { return Text(t.Region) }).
		Field("product", func(t trade) Value { return Text(t.Product) }).
		Field("amount", func(t trade) Value { return Number(t.Amount) }).
		Bind([]trade{{"EMEA", "FX", 100}, {"EMEA", "Rates", 50}, {"APAC", "FX", 200}})

	res, err := ExecuteView(view, tradesConfig(), quiet)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{100, 50}, {200, 0}}, res.Primary().Cells)
}

// ============================================================================
// PROPERTIES
// ============================================================================

func randomDataset(rng *rand.Rand, n int) Dataset {
	regions := []Value{Text("EMEA"), Text("APAC"), Text("AMER"), Null()}
	products := []Value{Text("FX"), Text("Rates"), Text("Credit")}
	desks := []Value{Number(1), Number(2), Bool(true)}
	ds := make(Dataset, n)
	for i := range ds {
		r := Record{
			"region":  regions[rng.Intn(len(regions))],
			"product": products[rng.Intn(len(products))],
			"desk":    desks[rng.Intn(len(desks))],
			"amount":  Number(float64(rng.Intn(10000)) / 100),
		}
		if rng.Intn(10) == 0 {
			delete(r, "desk")
		}
		ds[i] = r
	}
	return ds
}

func propertyConfig() Config {
	return Config{
		RowFields:     []string{"region", "desk"},
		ColumnFields:  []string{"product"},
		MeasureFields: []string{"amount"},
	}
}

func TestPropertyTotalsAndCardinality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 25; trial++ {
		ds := randomDataset(rng, 1+rng.Intn(200))
		res, err := Execute(ds, propertyConfig(), quiet)
		require.NoError(t, err)

		m := res.Primary()
		assert.True(t, TotalsConsistent(m, 1e-9), "trial %d", trial)

		dims := AnalyzeDimensions(NewSliceView(ds), []string{"region", "desk"})
		assert.Equal(t, len(dims[0].Values)*len(dims[1].Values), len(res.Rows))
		require.Len(t, m.Cells, len(res.Rows))
		for _, row := range m.Cells {
			assert.Len(t, row, len(res.Columns))
		}

		var total float64
		for _, r := range ds {
			total += mustFloat(r["amount"])
		}
		assert.InDelta(t, total, m.GrandTotal, 1e-6)
	}
}

func TestPropertyFilterMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ds := randomDataset(rng, 300)
	cfg := propertyConfig()

	base, err := Execute(ds, cfg, quiet)
	require.NoError(t, err)

	filters := []map[string]Value{
		{"product": Text("FX")},
		{"product": Text("FX"), "region": Text("EMEA")},
		{"product": Text("FX"), "region": Text("EMEA"), "desk": Number(2)},
	}
	prev := base.Primary().GrandTotal
	for _, f := range filters {
		cfg.Filters = f
		res, err := Execute(ds, cfg, quiet)
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Primary().GrandTotal, prev)
		assert.Equal(t, len(base.Rows), len(res.Rows))
		prev = res.Primary().GrandTotal
	}
}

func TestPropertyIdempotentAndConcurrent(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ds := randomDataset(rng, 500)
	cfg := propertyConfig()
	cfg.Filters = map[string]Value{"region": Text("APAC")}

	first, err := Execute(ds, cfg, quiet)
	require.NoError(t, err)
	second, err := Execute(ds, cfg, quiet)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	parallel, err := Execute(ds, cfg, quiet, WithConcurrency(8))
	require.NoError(t, err)
	assert.Equal(t, first, parallel)
}

func TestResultNotAffectedByLaterRuns(t *testing.T) {
	ds := tradesDataset()
	cfg := tradesConfig()
	cache := NewDimensionCache(8)

	first, err := Execute(ds, cfg, quiet, WithDimensionCache(cache))
	require.NoError(t, err)
	snapshot := labels(first.Rows)

	first.Rows[0].Values[0] = Text("mutated")
	cfg.RowFields[0] = "product"

	second, err := Execute(ds, tradesConfig(), quiet, WithDimensionCache(cache))
	require.NoError(t, err)
	assert.Equal(t, snapshot, labels(second.Rows))
	assert.Equal(t, "EMEA", second.Rows[0].Values[0].String())
}

func TestExecuteDelimiterInValuesDoesNotCollide(t *testing.T) {
	ds := Dataset{
		{"a": Text("x-y"), "b": Text("z"), "col": Text("c"), "v": Number(1)},
		{"a": Text("x"), "b": Text("y-z"), "col": Text("c"), "v": Number(2)},
	}
	cfg := Config{RowFields: []string{"a", "b"}, ColumnFields: []string{"col"}, MeasureFields: []string{"v"}}

	res, err := Execute(ds, cfg, quiet, WithLabelSeparator("-"))
	require.NoError(t, err)

	keys := make(map[string]bool)
	for _, h := range res.Rows {
		assert.False(t, keys[h.Key], "duplicate key for %s", h.Label)
		keys[h.Key] = true
	}
	assert.Equal(t, 1.0, res.Primary().Cell(res.RowIndex(Text("x-y"), Text("z")), 0))
	assert.Equal(t, 2.0, res.Primary().Cell(res.RowIndex(Text("x"), Text("y-z")), 0))
}

func mustFloat(v Value) float64 {
	f, _ := v.Float()
	return f
}

func BenchmarkExecute(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	ds := make(Dataset, 20000)
	for i := range ds {
		ds[i] = Record{
			"region":  Text("r" + strconv.Itoa(rng.Intn(20))),
			"product": Text("p" + strconv.Itoa(rng.Intn(30))),
			"amount":  Number(rng.Float64() * 100),
		}
	}
	cfg := tradesConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Execute(ds, cfg, quiet, WithConcurrency(4)); err != nil {
			b.Fatal(err)
		}
	}
}
