package raster

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

const nodata = -9999

func TestExtentFromPolygonPosList(t *testing.T) {
	e, err := ExtentFromPolygonPosList("37.86 7.84 35.85 11.19 35.85 11.19 37.86 7.84")
	require.NoError(t, err)
	assert.Equal(t, Extent{LonMin: 7.84, LatMin: 35.85, LonMax: 11.19, LatMax: 37.86}, e)

	e, err = ExtentFromPolygonPosList("{36,9,35,10,37}")
	require.NoError(t, err)
	assert.Equal(t, Extent{LonMin: 9, LatMin: 36, LonMax: 10, LatMax: 37}, e)

	_, err = ExtentFromPolygonPosList("1 2 3")
	assert.Error(t, err)
	_, err = ExtentFromPolygonPosList("1 2 x 4 5")
	assert.Error(t, err)
}

func TestGeoTransform(t *testing.T) {
	e := Extent{LonMin: 9, LatMin: 35, LonMax: 11, LatMax: 36}
	assert.Equal(t, [6]float64{9, 0.5, 0, 36, 0, -0.25}, e.GeoTransform(4, 4))
}

func TestSubdatasetName(t *testing.T) {
	assert.Equal(t,
		`HDF5:"/data/a.h5"://Soil_Moisture_Retrieval_Data_1km/soil_moisture_1km`,
		SubdatasetName("/data/a.h5", "/Soil_Moisture_Retrieval_Data_1km/soil_moisture_1km"))
}

func grid(x0, y0, res float64, rows [][]float64) *Grid {
	g := NewGrid(len(rows[0]), len(rows), [6]float64{x0, res, 0, y0, 0, -res}, nodata)
	for r, row := range rows {
		for c, v := range row {
			g.Set(c, r, v)
		}
	}
	return g
}

func TestGridSample(t *testing.T) {
	g := grid(9, 36, 0.5, [][]float64{
		{1, 2},
		{3, 4},
	})
	v, err := g.Sample(9.6, 35.9)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = g.Sample(9.1, 35.1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = g.Sample(8.9, 35.9)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, [4]float64{9, 35, 10, 36}, g.Bounds())
}

func TestMergeMax(t *testing.T) {
	left := grid(0, 2, 1, [][]float64{
		{1, 5},
		{nodata, 2},
	})
	right := grid(1, 2, 1, [][]float64{
		{3, 7},
		{4, nodata},
	})

	merged, err := MergeMax([]*Grid{left, right}, nodata)
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Width)
	assert.Equal(t, 2, merged.Height)
	assert.Equal(t, [6]float64{0, 1, 0, 2, 0, -1}, merged.GeoTransform)
	assert.Equal(t, []float64{
		1, 5, 7,
		nodata, 4, nodata,
	}, merged.Data)

	_, err = MergeMax(nil, nodata)
	assert.Error(t, err)
}

func TestShapes(t *testing.T) {
	shapes := []Shape{{100, 200}, {99, 199}, {50, 200}, {101, 201}}
	h, w := MedianShape(shapes)
	assert.Equal(t, 99.5, h)
	assert.Equal(t, 200.0, w)

	assert.True(t, IsOutlier(Shape{50, 200}, h, w, 0.98))
	assert.False(t, IsOutlier(Shape{98, 196}, h, w, 0.98))

	smallest, ok := SmallestShape(shapes, 0.98)
	require.True(t, ok)
	assert.Equal(t, Shape{99, 199}, smallest)

	_, ok = SmallestShape(nil, 0.98)
	assert.False(t, ok)
}

func TestClean(t *testing.T) {
	g := grid(0, 3, 1, [][]float64{
		{1, 0, 9},
		{nodata, 2, 9},
		{9, 9, 9},
	})
	data, ok := Clean(g, Shape{Height: 2, Width: 2})
	require.True(t, ok)
	assert.Equal(t, 1.0, data[0])
	assert.True(t, math.IsNaN(data[1]))
	assert.True(t, math.IsNaN(data[2]))
	assert.Equal(t, 2.0, data[3])

	_, ok = Clean(g, Shape{Height: 4, Width: 2})
	assert.False(t, ok)
}

func TestNanMean(t *testing.T) {
	nan := math.NaN()
	mean := NanMean([][]float64{
		{1, nan, nan},
		{3, 4, nan},
	})
	assert.Equal(t, 2.0, mean[0])
	assert.Equal(t, 4.0, mean[1])
	assert.True(t, math.IsNaN(mean[2]))
	assert.Nil(t, NanMean(nil))
}

func TestGroupByMonth(t *testing.T) {
	groups := GroupByMonth([]string{
		"/m/2020-05-02.tif", "/m/2020-04-30.tif", "/m/2020-04-07.tif", "/m/notes.tif", "/m/2021-01-01.tif",
	})
	assert.Equal(t, []MonthGroup{
		{Period: "2020-04", Paths: []string{"/m/2020-04-07.tif", "/m/2020-04-30.tif"}},
		{Period: "2020-05", Paths: []string{"/m/2020-05-02.tif"}},
		{Period: "2021-01", Paths: []string{"/m/2021-01-01.tif"}},
	}, groups)
}

func TestSaveLoadAndMonthlyMeans(t *testing.T) {
	dir := t.TempDir()
	days := map[string][][]float64{
		"2020-04-07.tif": {{0.2, 0}, {nodata, 0.4}},
		"2020-04-08.tif": {{0.4, 0.1}, {nodata, 0.2}},
		"2020-05-01.tif": {{0.3, 0.3}, {0.3, 0.3}},
	}
	var paths []string
	for name, rows := range days {
		p := filepath.Join(dir, name)
		require.NoError(t, grid(9, 36, 0.5, rows).Save(p))
		paths = append(paths, p)
	}

	loaded, err := LoadGrid(filepath.Join(dir, "2020-04-08.tif"))
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Width)
	assert.Equal(t, float64(nodata), loaded.NoData)
	assert.InDelta(t, 0.1, loaded.At(1, 0), 1e-6)

	outDir := t.TempDir()
	written, err := MonthlyMeans(paths, outDir, 0.98)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(outDir, "2020-04.tif"), filepath.Join(outDir, "2020-05.tif")}, written)

	april, err := LoadGrid(written[0])
	require.NoError(t, err)
	assert.InDelta(t, 0.3, april.At(0, 0), 1e-6)
	assert.InDelta(t, 0.1, april.At(1, 0), 1e-6)
	assert.True(t, math.IsNaN(april.At(0, 1)))
	assert.InDelta(t, 0.3, april.At(1, 1), 1e-6)
}

func TestMaskWithBounds(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "2020-04-07.tif")
	require.NoError(t, grid(9, 36, 0.5, [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}).Save(in))

	out := filepath.Join(dir, "masked.tif")
	require.NoError(t, Mask(in, out, MaskSource{Bounds: [4]float64{9.5, 35, 10.5, 36}}, nodata))

	masked, err := LoadGrid(out)
	require.NoError(t, err)
	assert.Equal(t, 2, masked.Width)
	assert.Equal(t, 2, masked.Height)
	assert.InDelta(t, 2, masked.At(0, 0), 1e-6)
	assert.InDelta(t, 6, masked.At(1, 1), 1e-6)
}

func TestMaskSwitches(t *testing.T) {
	assert.Equal(t,
		[]string{"-of", "GTiff", "-dstnodata", "-9999", "-cutline", "/aoi/area.shp", "-crop_to_cutline"},
		MaskSource{Cutline: "/aoi/area.shp"}.warpSwitches(nodata, [2]float64{0.01, 0.01}))
	assert.Equal(t,
		[]string{"-of", "GTiff", "-dstnodata", "-9999", "-te", "9", "35.7", "9.8", "36.6", "-tr", "0.01", "0.01"},
		MaskSource{Bounds: [4]float64{9, 35.7, 9.8, 36.6}}.warpSwitches(nodata, [2]float64{0.01, 0.01}))
}

func TestSampleAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "2021-03-01.tif")
	g := grid(9, 37, 0.5, [][]float64{{0.1, 0.2}, {0.3, 0.4}})
	require.NoError(t, g.Save(path))

	v, err := Sample(path, 9.6, 36.9)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v, 1e-6)

	values, err := SampleAll(path, []Point{{Lon: 9.1, Lat: 36.4}, {Lon: 20, Lat: 20}}, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, values[0], 1e-6)
	assert.Equal(t, 0.0, values[1])

	_, err = SampleAll(filepath.Join(t.TempDir(), "missing.tif"), nil, 0)
	assert.Error(t, err)
}
