// Package raster converts SMAP granules to GeoTIFF and processes the resulting daily grids.
package raster

import (
	"errors"
	"fmt"
	"math"

	"github.com/airbusgeo/godal"
)

var ErrOutOfBounds = errors.New("coordinate outside raster")

// Grid is one band held in memory, row major, with a north-up geotransform.
type Grid struct {
	Width        int
	Height       int
	GeoTransform [6]float64
	Data         []float64
	NoData       float64
}

func NewGrid(width, height int, gt [6]float64, nodata float64) *Grid {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = nodata
	}
	return &Grid{Width: width, Height: height, GeoTransform: gt, Data: data, NoData: nodata}
}

func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.Width+col] = v
}

// Valid reports a value that is neither nodata nor NaN.
func (g *Grid) Valid(v float64) bool {
	return !math.IsNaN(v) && v != g.NoData
}

// Bounds returns xmin, ymin, xmax, ymax.
func (g *Grid) Bounds() [4]float64 {
	gt := g.GeoTransform
	xmax := gt[0] + gt[1]*float64(g.Width)
	ymin := gt[3] + gt[5]*float64(g.Height)
	return [4]float64{gt[0], ymin, xmax, gt[3]}
}

// Pixel returns the column and row holding lon, lat.
func (g *Grid) Pixel(lon, lat float64) (int, int, error) {
	gt := g.GeoTransform
	col := int(math.Floor((lon - gt[0]) / gt[1]))
	row := int(math.Floor((lat - gt[3]) / gt[5]))
	if col < 0 || col >= g.Width || row < 0 || row >= g.Height {
		return 0, 0, fmt.Errorf("%w: (%f, %f) maps to pixel (%d, %d)", ErrOutOfBounds, lon, lat, col, row)
	}
	return col, row, nil
}

// Sample returns the raw pixel value at lon, lat.
func (g *Grid) Sample(lon, lat float64) (float64, error) {
	col, row, err := g.Pixel(lon, lat)
	if err != nil {
		return 0, err
	}
	return g.At(col, row), nil
}

// Crop keeps the top left height x width pixels.
func (g *Grid) Crop(height, width int) *Grid {
	out := &Grid{Width: width, Height: height, GeoTransform: g.GeoTransform, NoData: g.NoData}
	out.Data = make([]float64, width*height)
	for r := 0; r < height; r++ {
		copy(out.Data[r*width:(r+1)*width], g.Data[r*g.Width:r*g.Width+width])
	}
	return out
}

// LoadGrid reads the first band of a raster file.
func LoadGrid(path string) (*Grid, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	defer ds.Close()
	return readGrid(ds)
}

func readGrid(ds *godal.Dataset) (*Grid, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to get GeoTransform: %w", err)
	}
	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, errors.New("raster has no band")
	}
	width := ds.Structure().SizeX
	height := ds.Structure().SizeY
	data := make([]float64, width*height)
	if err := bands[0].Read(0, 0, data, width, height); err != nil {
		return nil, fmt.Errorf("failed to read raster data: %w", err)
	}
	nodata, ok := bands[0].NoData()
	if !ok {
		nodata = math.NaN()
	}
	return &Grid{Width: width, Height: height, GeoTransform: gt, Data: data, NoData: nodata}, nil
}

// Save writes the grid as a single band Float32 GeoTIFF in EPSG:4326.
func (g *Grid) Save(path string) error {
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float32, g.Width, g.Height)
	if err != nil {
		return fmt.Errorf("failed to create raster %s: %w", path, err)
	}

	if err := g.write(ds); err != nil {
		ds.Close()
		return fmt.Errorf("failed to write raster %s: %w", path, err)
	}
	return ds.Close()
}

func (g *Grid) write(ds *godal.Dataset) error {
	if err := ds.SetGeoTransform(g.GeoTransform); err != nil {
		return err
	}
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return err
	}

	band := ds.Bands()[0]
	if !math.IsNaN(g.NoData) {
		if err := band.SetNoData(g.NoData); err != nil {
			return err
		}
	}
	buf := make([]float32, len(g.Data))
	for i, v := range g.Data {
		buf[i] = float32(v)
	}
	return band.Write(0, 0, buf, g.Width, g.Height)
}
