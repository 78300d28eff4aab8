// Package shapefile writes point layers through GDAL.
package shapefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
)

type FieldType int

const (
	String FieldType = iota
	Real
	Integer
)

func (t FieldType) godalType() godal.FieldType {
	switch t {
	case Real:
		return godal.FTReal
	case Integer:
		return godal.FTInt
	default:
		return godal.FTString
	}
}

type Field struct {
	Name string
	Type FieldType
}

// Point is one feature. Values are matched to fields by position.
type Point struct {
	Lon    float64
	Lat    float64
	Values []any
}

var sidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// Remove deletes a shapefile and its sidecar files.
func Remove(path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range sidecars {
		if err := os.Remove(base + ext); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// WritePoints writes points to a new EPSG:4326 shapefile at path, replacing any existing one.
func WritePoints(path string, fields []Field, points []Point) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := Remove(path); err != nil {
		return fmt.Errorf("failed to remove previous shapefile: %w", err)
	}

	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return err
	}
	defer sr.Close()

	ds, err := godal.CreateVector(godal.Shapefile, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer ds.Close()

	defs := make([]godal.CreateLayerOption, len(fields))
	for i, f := range fields {
		defs[i] = godal.NewFieldDefinition(f.Name, f.Type.godalType())
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	layer, err := ds.CreateLayer(name, sr, godal.GTPoint, defs...)
	if err != nil {
		return fmt.Errorf("failed to create layer %s: %w", name, err)
	}

	for i, p := range points {
		if err := writePoint(layer, sr, fields, p); err != nil {
			return fmt.Errorf("failed to write feature %d: %w", i, err)
		}
	}
	return nil
}

func writePoint(layer godal.Layer, sr *godal.SpatialRef, fields []Field, p Point) error {
	if len(p.Values) != len(fields) {
		return fmt.Errorf("expected %d values, got %d", len(fields), len(p.Values))
	}
	wkt := "POINT (" + strconv.FormatFloat(p.Lon, 'f', -1, 64) + " " + strconv.FormatFloat(p.Lat, 'f', -1, 64) + ")"
	geom, err := godal.NewGeometryFromWKT(wkt, sr)
	if err != nil {
		return err
	}
	defer geom.Close()

	feat, err := layer.NewFeature(geom)
	if err != nil {
		return err
	}
	defer feat.Close()

	byName := feat.Fields()
	for i, f := range fields {
		field, ok := byName[f.Name]
		if !ok {
			return fmt.Errorf("field %s not found", f.Name)
		}
		if err := feat.SetFieldValue(field, p.Values[i]); err != nil {
			return fmt.Errorf("failed to set %s: %w", f.Name, err)
		}
	}
	return layer.UpdateFeature(feat)
}

// ReadPoints reads back a point layer. Field values are returned as strings keyed by name.
func ReadPoints(path string) ([]Point, []map[string]string, error) {
	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return nil, nil, err
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return nil, nil, fmt.Errorf("no layer in %s", path)
	}

	var points []Point
	var attrs []map[string]string
	layer := layers[0]
	layer.ResetReading()
	for {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		bounds, err := feat.Geometry().Bounds()
		if err != nil {
			feat.Close()
			return nil, nil, err
		}
		values := map[string]string{}
		for name, field := range feat.Fields() {
			values[name] = field.String()
		}
		points = append(points, Point{Lon: bounds[0], Lat: bounds[1]})
		attrs = append(attrs, values)
		feat.Close()
	}
	return points, attrs, nil
}
