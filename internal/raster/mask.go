package raster

import (
	"fmt"
	"strconv"

	"github.com/airbusgeo/godal"
)

// MaskSource is either a cutline shapefile or, when no shapefile is known, the area bounds
// (xmin, ymin, xmax, ymax).
type MaskSource struct {
	Cutline string
	Bounds  [4]float64
}

// warpSwitches keeps the source resolution res (x, y) when cropping to bounds.
func (m MaskSource) warpSwitches(nodata float64, res [2]float64) []string {
	switches := []string{"-of", "GTiff", "-dstnodata", strconv.FormatFloat(nodata, 'f', -1, 64)}
	if m.Cutline != "" {
		return append(switches, "-cutline", m.Cutline, "-crop_to_cutline")
	}
	switches = append(switches, "-te")
	for _, b := range m.Bounds {
		switches = append(switches, strconv.FormatFloat(b, 'f', -1, 64))
	}
	return append(switches, "-tr", strconv.FormatFloat(res[0], 'f', -1, 64), strconv.FormatFloat(res[1], 'f', -1, 64))
}

// Mask crops inPath to the source and writes outPath. Pixels outside a cutline become nodata.
func Mask(inPath, outPath string, src MaskSource, nodata float64) error {
	ds, err := godal.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open raster %s: %w", inPath, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return fmt.Errorf("failed to get GeoTransform of %s: %w", inPath, err)
	}

	out, err := ds.Warp(outPath, src.warpSwitches(nodata, [2]float64{gt[1], -gt[5]}))
	if err != nil {
		return fmt.Errorf("failed to mask %s: %w", inPath, err)
	}
	return out.Close()
}
