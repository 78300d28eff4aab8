package raster

import (
	"errors"
)

// Point is a lon, lat position to sample.
type Point struct {
	Lon float64
	Lat float64
}

// Sample reads the value of the raster at path under lon, lat.
func Sample(path string, lon, lat float64) (float64, error) {
	g, err := LoadGrid(path)
	if err != nil {
		return 0, err
	}
	return g.Sample(lon, lat)
}

// SampleAll reads the raster once and samples every point. A point outside the raster gets
// outside instead of failing the whole call.
func SampleAll(path string, points []Point, outside float64) ([]float64, error) {
	g, err := LoadGrid(path)
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(points))
	for i, p := range points {
		v, err := g.Sample(p.Lon, p.Lat)
		if errors.Is(err, ErrOutOfBounds) {
			v = outside
		} else if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
