package statistics

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/forest-guardian/smap-coverage-cli/internal/shapefile"
	"github.com/gocarina/gocsv"
)

// FileName is the base name of the outputs of a metric, without extension.
func FileName(m Metric) string { return "hru_" + m.String() }

var resultFields = []shapefile.Field{
	{Name: "HRU", Type: shapefile.String},
	{Name: "Value", Type: shapefile.Real},
	{Name: "Color", Type: shapefile.String},
	{Name: "Size", Type: shapefile.Integer},
}

// PointSize is the symbol size stored with every feature.
const PointSize = 4

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteShapefile writes one point per HRU with the value rounded to two decimals.
func WriteShapefile(path string, results []HRUResult) error {
	points := make([]shapefile.Point, len(results))
	for i, r := range results {
		points[i] = shapefile.Point{
			Lon:    r.Lon,
			Lat:    r.Lat,
			Values: []any{strconv.Itoa(r.HRU), round2(r.Value), r.Color, PointSize},
		}
	}
	return shapefile.WritePoints(path, resultFields, points)
}

func WriteCSV(path string, results []HRUResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	rows := make([]HRUResult, len(results))
	for i, r := range results {
		r.Value = round2(r.Value)
		rows[i] = r
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func ReadCSV(path string) ([]HRUResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []HRUResult
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
