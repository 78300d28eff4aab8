package statistics

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/smap-coverage-cli/internal/shapefile"
	"github.com/forest-guardian/smap-coverage-cli/internal/swatplus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

func TestMetrics(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1, PearsonCorrelation(x, []float64{2, 4, 6, 8}), 1e-12)
	assert.InDelta(t, -1, PearsonCorrelation(x, []float64{4, 3, 2, 1}), 1e-12)
	assert.InDelta(t, 1, R2(x, []float64{4, 3, 2, 1}), 1e-12)
	assert.InDelta(t, 1, NSE(x, x), 1e-12)
	// modeled equal to the observed mean scores zero
	assert.InDelta(t, 0, NSE(x, []float64{2.5, 2.5, 2.5, 2.5}), 1e-12)

	tests := []struct {
		name string
		x, y []float64
	}{
		{"single pair", []float64{1}, []float64{1}},
		{"constant", []float64{1, 1, 1}, []float64{1, 2, 3}},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsNaN(PearsonCorrelation(tt.x, tt.y)))
			assert.True(t, math.IsNaN(R2(tt.x, tt.y)))
		})
	}
	assert.True(t, math.IsNaN(NSE([]float64{2, 2}, []float64{1, 3})))
}

func TestParseMetric(t *testing.T) {
	for in, want := range map[string]Metric{"pearson": Pearson, "NSE": NashSutcliffe, "r2": RSquared, "nash_sutcliffe_efficiency": NashSutcliffe} {
		got, err := ParseMetric(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMetric("kge")
	assert.Error(t, err)
	assert.Equal(t, "hru_pearson_corr", FileName(Pearson))
	assert.Equal(t, "hru_r2", FileName(RSquared))
}

func TestCorrectedSoilWater(t *testing.T) {
	v, ok := CorrectedSoilWater(150, "S-700")
	assert.True(t, ok)
	assert.InDelta(t, 1.1674, v, 1e-12)

	_, ok = CorrectedSoilWater(150, "S-999")
	assert.False(t, ok)
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		metric Metric
		value  float64
		want   string
	}{
		{Pearson, 0.1, Palette[0]},
		{Pearson, 0.40, Palette[1]},
		{Pearson, 0.52, Palette[3]},
		{Pearson, 0.60, Palette[4]},
		{Pearson, 0.9, Palette[5]},
		{NashSutcliffe, -3, Palette[0]},
		{RSquared, 0.49, Palette[0]},
		{RSquared, 0.53, Palette[2]},
		{RSquared, 0.60, Palette[5]},
		{RSquared, math.NaN(), Palette[0]},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorFor(tt.metric, tt.value), "%s %v", tt.metric, tt.value)
	}
}

func TestPair(t *testing.T) {
	modeled := []swatplus.MonthlyMean{{Period: "2021-01", Value: 1}, {Period: "2021-02", Value: 2}, {Period: "2021-03", Value: 3}}
	observed := []swatplus.MonthlyMean{{Period: "2021-03", Value: 30}, {Period: "2021-01", Value: 10}}

	obs, mod := Pair(modeled, observed)
	assert.Equal(t, []float64{10, 30}, obs)
	assert.Equal(t, []float64{1, 3}, mod)
}

func monthly(key int, values ...float64) []swatplus.MonthlyMean {
	periods := []string{"2021-01", "2021-02", "2021-03", "2021-04"}
	out := make([]swatplus.MonthlyMean, len(values))
	for i, v := range values {
		out[i] = swatplus.MonthlyMean{Period: periods[i], Key: key, Value: v}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	points := []swatplus.HRUPoint{{ID: 2, Lon: 9.2, Lat: 36.2}, {ID: 1, Lon: 9.1, Lat: 36.1}, {ID: 3, Lon: 9.3, Lat: 36.3}}
	modeled := append(append(monthly(1, 15, 30, 45, 60), monthly(2, 15, 30, 45, 60)...), monthly(3, 15, 30)...)
	// HRU 1 observed is the corrected model, HRU 2 has an unknown soil, HRU 3 has one pair only
	observed := append(append(monthly(1, 0.2674, 0.3674, 0.4674, 0.5674), monthly(2, 1, 2, 3, 4)...), monthly(3, 0.1)...)
	soils := map[int]string{1: "S-700", 2: "S-999", 3: "S-700"}

	results := Evaluate(NashSutcliffe, points, modeled, observed, soils)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].HRU)
	assert.InDelta(t, 1, results[0].Value, 1e-9)
	assert.Equal(t, 4, results[0].Pairs)
	assert.Equal(t, Palette[5], results[0].Color)

	assert.Equal(t, 2, results[1].HRU)
	assert.True(t, results[1].UnknownSoil)
	assert.True(t, math.IsNaN(results[1].Value))
	assert.Equal(t, Palette[0], results[1].Color)

	assert.Equal(t, 1, results[2].Pairs)
	assert.True(t, math.IsNaN(results[2].Value))

	s := Summarize(NashSutcliffe, results)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Valid)
	assert.InDelta(t, 1, s.Average, 1e-9)
	require.Len(t, s.Shares, 2)
	assert.Equal(t, Share{Limit: 0.60, Count: 1, Percent: 33}, s.Shares[0])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(Pearson, nil)
	assert.True(t, math.IsNaN(s.Average))
	assert.Empty(t, s.Shares)
}

func TestWriters(t *testing.T) {
	dir := t.TempDir()
	results := []HRUResult{
		{HRU: 1, Lon: 9.1, Lat: 36.1, Value: 0.456, Color: Palette[2], Soil: "S-700"},
		{HRU: 2, Lon: 9.2, Lat: 36.2, Value: math.NaN(), Color: Palette[0], Soil: "S-999"},
	}

	shp := filepath.Join(dir, FileName(Pearson)+".shp")
	require.NoError(t, WriteShapefile(shp, results))
	_, attrs, err := shapefile.ReadPoints(shp)
	require.NoError(t, err)
	require.Len(t, attrs, 2)
	assert.Equal(t, "1", attrs[0]["HRU"])
	assert.Equal(t, Palette[2], attrs[0]["Color"])
	assert.Equal(t, "4", attrs[0]["Size"])

	csvPath := filepath.Join(dir, FileName(Pearson)+".csv")
	require.NoError(t, WriteCSV(csvPath, results))
	rows, err := ReadCSV(csvPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.46, rows[0].Value)
	assert.True(t, math.IsNaN(rows[1].Value))
	assert.Equal(t, "S-999", rows[1].Soil)
}
