package raster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
)

// PolygonPosListKey is the GDAL metadata item of the /Metadata/Extent polygonPosList attribute.
const PolygonPosListKey = "Metadata_Extent_polygonPosList"

type Extent struct {
	LonMin, LatMin, LonMax, LatMax float64
}

// ExtentFromPolygonPosList reads the granule extent from its polygonPosList attribute,
// latitudes at positions 0 and 4, longitudes at positions 1 and 3.
func ExtentFromPolygonPosList(s string) (Extent, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '{' || r == '}' || r == '[' || r == ']'
	})
	if len(tokens) < 5 {
		return Extent{}, fmt.Errorf("polygonPosList needs at least 5 values, got %d", len(tokens))
	}
	c := make([]float64, 5)
	for i := range c {
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return Extent{}, fmt.Errorf("invalid polygonPosList value %q: %w", tokens[i], err)
		}
		c[i] = v
	}
	return Extent{
		LonMin: math.Min(c[1], c[3]),
		LonMax: math.Max(c[1], c[3]),
		LatMin: math.Min(c[0], c[4]),
		LatMax: math.Max(c[0], c[4]),
	}, nil
}

// GeoTransform spreads the extent over cols x rows pixels, north up.
func (e Extent) GeoTransform(cols, rows int) [6]float64 {
	xres := (e.LonMax - e.LonMin) / float64(cols)
	yres := (e.LatMax - e.LatMin) / float64(rows)
	return [6]float64{e.LonMin, xres, 0, e.LatMax, 0, -yres}
}

// SubdatasetName is the GDAL name of one HDF5 dataset.
func SubdatasetName(h5Path, band string) string {
	return fmt.Sprintf(`HDF5:"%s"://%s`, h5Path, strings.TrimPrefix(band, "/"))
}

// ConvertH5Band writes one band of a granule as a georeferenced GeoTIFF.
func ConvertH5Band(h5Path, band, outPath string, nodata float64) error {
	posList := ""
	if root, err := godal.Open(h5Path); err == nil {
		posList = root.Metadata(PolygonPosListKey)
		root.Close()
	} else {
		return fmt.Errorf("failed to open granule %s: %w", h5Path, err)
	}

	ds, err := godal.Open(SubdatasetName(h5Path, band))
	if err != nil {
		return fmt.Errorf("failed to open band %s of %s: %w", band, h5Path, err)
	}
	defer ds.Close()

	if posList == "" {
		posList = ds.Metadata(PolygonPosListKey)
	}
	extent, err := ExtentFromPolygonPosList(posList)
	if err != nil {
		return fmt.Errorf("failed to read extent of %s: %w", h5Path, err)
	}

	width := ds.Structure().SizeX
	height := ds.Structure().SizeY
	data := make([]float64, width*height)
	if err := ds.Bands()[0].Read(0, 0, data, width, height); err != nil {
		return fmt.Errorf("failed to read band %s of %s: %w", band, h5Path, err)
	}

	g := &Grid{Width: width, Height: height, GeoTransform: extent.GeoTransform(width, height), Data: data, NoData: nodata}
	return g.Save(outPath)
}
