package footprint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

var ErrNoShapefile = errors.New("no shapefile found")

// AreaOfInterest is the fixed target region of one pipeline run.
type AreaOfInterest struct {
	BoundingBox string
	Polygon     orb.Polygon
	// Shapefile is set when the area was read from a shapefile; used as raster cutline.
	Shapefile string
}

func NewAreaOfInterest(bbox string) (AreaOfInterest, error) {
	p, err := ParseBoundingBox(bbox)
	if err != nil {
		return AreaOfInterest{}, err
	}
	return AreaOfInterest{BoundingBox: bbox, Polygon: p}, nil
}

// Coordinates returns the area in the catalog (lat lon) coordinate string format.
func (a AreaOfInterest) Coordinates() string {
	s, _ := BoundingBoxToCoordinates(a.BoundingBox)
	return s
}

// ToGeometry converts a polygon into an OGR geometry. The caller closes it.
func ToGeometry(p orb.Polygon) (*godal.Geometry, error) {
	g, err := godal.NewGeometryFromWKT(wkt.MarshalString(p), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geometry: %w", err)
	}
	return g, nil
}

// FirstShapefile returns the first *.shp file of dir in lexical order.
func FirstShapefile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.shp"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoShapefile, dir)
	}
	sort.Strings(matches)
	return matches[0], nil
}

// BoundingBoxFromShapefile reads the bounds of the first feature of the first shapefile in dir,
// in EPSG:4326.
func BoundingBoxFromShapefile(dir string) (string, string, error) {
	path, err := FirstShapefile(dir)
	if err != nil {
		return "", "", err
	}

	ds, err := godal.Open(path, godal.VectorOnly())
	if err != nil {
		return "", "", fmt.Errorf("failed to open shapefile %s: %w", path, err)
	}
	defer ds.Close()

	layers := ds.Layers()
	if len(layers) == 0 {
		return "", "", fmt.Errorf("shapefile %s has no layer", path)
	}
	feat := layers[0].NextFeature()
	if feat == nil {
		return "", "", fmt.Errorf("shapefile %s has no feature", path)
	}
	defer feat.Close()

	geom := feat.Geometry()
	defer geom.Close()

	if geom.SpatialRef() != nil {
		wgs84, err := godal.NewSpatialRefFromEPSG(4326)
		if err != nil {
			return "", "", fmt.Errorf("failed to create EPSG:4326 reference: %w", err)
		}
		defer wgs84.Close()
		if err := geom.Reproject(wgs84); err != nil {
			return "", "", fmt.Errorf("failed to reproject %s to EPSG:4326: %w", path, err)
		}
	}

	bounds, err := geom.Bounds()
	if err != nil {
		return "", "", fmt.Errorf("failed to get geometry bounds: %w", err)
	}
	return FormatBoundingBox(bounds), path, nil
}

// BoundingBoxFromGeoJSON reads the bounds of the first feature of a GeoJSON file.
func BoundingBoxFromGeoJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode GeoJSON %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return "", fmt.Errorf("GeoJSON %s has no feature", path)
	}
	b := fc.Features[0].Geometry.Bound()
	return FormatBoundingBox([4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}), nil
}

// ResolveAreaOfInterest uses bbox when set, otherwise the first shapefile, then the first
// GeoJSON file of dir.
func ResolveAreaOfInterest(bbox, dir string) (AreaOfInterest, error) {
	if bbox != "" {
		return NewAreaOfInterest(bbox)
	}

	fromShp, shp, err := BoundingBoxFromShapefile(dir)
	if err == nil {
		aoi, err := NewAreaOfInterest(fromShp)
		aoi.Shapefile = shp
		return aoi, err
	}
	if !errors.Is(err, ErrNoShapefile) {
		return AreaOfInterest{}, err
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if len(matches) == 0 {
		return AreaOfInterest{}, fmt.Errorf("no bounding box configured and %w", err)
	}
	sort.Strings(matches)
	fromJSON, err := BoundingBoxFromGeoJSON(matches[0])
	if err != nil {
		return AreaOfInterest{}, err
	}
	return NewAreaOfInterest(fromJSON)
}
