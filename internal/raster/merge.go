package raster

import (
	"errors"
	"fmt"
	"math"
)

// MergeMax mosaics grids over their union extent on the resolution of the first grid. Where
// grids overlap the largest valid value wins.
func MergeMax(grids []*Grid, nodata float64) (*Grid, error) {
	if len(grids) == 0 {
		return nil, errors.New("no raster to merge")
	}

	bounds := grids[0].Bounds()
	for _, g := range grids[1:] {
		b := g.Bounds()
		bounds[0] = math.Min(bounds[0], b[0])
		bounds[1] = math.Min(bounds[1], b[1])
		bounds[2] = math.Max(bounds[2], b[2])
		bounds[3] = math.Max(bounds[3], b[3])
	}

	xres := grids[0].GeoTransform[1]
	yres := -grids[0].GeoTransform[5]
	if xres <= 0 || yres <= 0 {
		return nil, fmt.Errorf("unsupported geotransform %v", grids[0].GeoTransform)
	}
	width := int(math.Round((bounds[2] - bounds[0]) / xres))
	height := int(math.Round((bounds[3] - bounds[1]) / yres))

	out := NewGrid(width, height, [6]float64{bounds[0], xres, 0, bounds[3], 0, -yres}, nodata)
	for _, g := range grids {
		gt := g.GeoTransform
		for r := 0; r < g.Height; r++ {
			lat := gt[3] + gt[5]*(float64(r)+0.5)
			for c := 0; c < g.Width; c++ {
				v := g.At(c, r)
				if !g.Valid(v) {
					continue
				}
				lon := gt[0] + gt[1]*(float64(c)+0.5)
				col, row, err := out.Pixel(lon, lat)
				if err != nil {
					continue
				}
				if cur := out.At(col, row); !out.Valid(cur) || v > cur {
					out.Set(col, row, v)
				}
			}
		}
	}
	return out, nil
}

// MergeMaxFiles loads every path, merges them and saves the mosaic to outPath.
func MergeMaxFiles(paths []string, outPath string, nodata float64) error {
	grids := make([]*Grid, 0, len(paths))
	for _, p := range paths {
		g, err := LoadGrid(p)
		if err != nil {
			return err
		}
		grids = append(grids, g)
	}
	merged, err := MergeMax(grids, nodata)
	if err != nil {
		return fmt.Errorf("mosaic merge failed for %s: %w", outPath, err)
	}
	return merged.Save(outPath)
}
