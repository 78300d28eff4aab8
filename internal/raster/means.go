package raster

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

type Shape struct {
	Height int
	Width  int
}

func (g *Grid) Shape() Shape { return Shape{Height: g.Height, Width: g.Width} }

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MedianShape returns the median height and width.
func MedianShape(shapes []Shape) (float64, float64) {
	heights := make([]float64, len(shapes))
	widths := make([]float64, len(shapes))
	for i, s := range shapes {
		heights[i] = float64(s.Height)
		widths[i] = float64(s.Width)
	}
	return median(heights), median(widths)
}

// IsOutlier reports a shape smaller than threshold times the reference on either axis.
func IsOutlier(s Shape, height, width, threshold float64) bool {
	return float64(s.Height) < height*threshold || float64(s.Width) < width*threshold
}

// SmallestShape is the per axis minimum over the shapes that are not outliers of the median.
func SmallestShape(shapes []Shape, threshold float64) (Shape, bool) {
	h, w := MedianShape(shapes)
	var smallest Shape
	found := false
	for _, s := range shapes {
		if IsOutlier(s, h, w, threshold) {
			continue
		}
		if !found {
			smallest, found = s, true
			continue
		}
		smallest.Height = min(smallest.Height, s.Height)
		smallest.Width = min(smallest.Width, s.Width)
	}
	return smallest, found
}

// Clean crops g to target and turns nodata and zero into NaN. Grids smaller than target are
// rejected.
func Clean(g *Grid, target Shape) ([]float64, bool) {
	if g.Height < target.Height || g.Width < target.Width {
		return nil, false
	}
	cropped := g.Crop(target.Height, target.Width)
	for i, v := range cropped.Data {
		if v == g.NoData || v == 0 {
			cropped.Data[i] = math.NaN()
		}
	}
	return cropped.Data, true
}

// NanMean averages layers pixel by pixel, ignoring NaN. A pixel with no value stays NaN.
func NanMean(layers [][]float64) []float64 {
	if len(layers) == 0 {
		return nil
	}
	out := make([]float64, len(layers[0]))
	values := make([]float64, 0, len(layers))
	for i := range out {
		values = values[:0]
		for _, layer := range layers {
			if v := layer[i]; !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(values, nil)
	}
	return out
}

// MonthGroup holds the daily rasters of one YYYY-MM period.
type MonthGroup struct {
	Period string
	Paths  []string
}

// GroupByMonth groups YYYY-MM-DD.tif paths by month, in period order. Other names are ignored.
func GroupByMonth(paths []string) []MonthGroup {
	sorted := append([]string(nil), paths...)
	sort.Slice(sorted, func(i, j int) bool { return filepath.Base(sorted[i]) < filepath.Base(sorted[j]) })

	var groups []MonthGroup
	for _, p := range sorted {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if len(name) < len("2006-01-02") || name[4] != '-' || name[7] != '-' {
			continue
		}
		period := name[:7]
		if n := len(groups); n > 0 && groups[n-1].Period == period {
			groups[n-1].Paths = append(groups[n-1].Paths, p)
			continue
		}
		groups = append(groups, MonthGroup{Period: period, Paths: []string{p}})
	}
	return groups
}

// MonthlyMeans writes one <period>.tif per month into outDir, the NaN mean of the cleaned daily
// rasters. Rasters are cropped to the smallest shape that is not an outlier of the median shape.
func MonthlyMeans(paths []string, outDir string, threshold float64) ([]string, error) {
	grids := make(map[string]*Grid, len(paths))
	shapes := make([]Shape, 0, len(paths))
	for _, p := range paths {
		g, err := LoadGrid(p)
		if err != nil {
			return nil, err
		}
		grids[p] = g
		shapes = append(shapes, g.Shape())
	}

	target, ok := SmallestShape(shapes, threshold)
	if !ok {
		return nil, fmt.Errorf("no raster left after removing outliers")
	}

	var written []string
	for _, group := range GroupByMonth(paths) {
		var layers [][]float64
		var reference *Grid
		for _, p := range group.Paths {
			data, ok := Clean(grids[p], target)
			if !ok {
				continue
			}
			if reference == nil {
				reference = grids[p]
			}
			layers = append(layers, data)
		}
		if len(layers) == 0 {
			continue
		}

		mean := &Grid{
			Width:        target.Width,
			Height:       target.Height,
			GeoTransform: reference.GeoTransform,
			Data:         NanMean(layers),
			NoData:       math.NaN(),
		}
		out := filepath.Join(outDir, group.Period+".tif")
		if err := mean.Save(out); err != nil {
			return written, err
		}
		written = append(written, out)
	}
	return written, nil
}
