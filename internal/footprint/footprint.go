// Package footprint builds lon/lat polygons from catalog coordinate strings and bounding boxes.
//
// Catalog polygons come as whitespace separated numbers in (lat, lon) order, cycling
// NW, SW, SE, NE and back to NW. Bounding boxes come as "lonmin,latmin,lonmax,latmax".
// Both are turned into rings with the same NW, SW, SE, NE, NW winding.
package footprint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	ErrMalformedCoordinates = errors.New("malformed polygon coordinates")
	ErrMalformedBoundingBox = errors.New("malformed bounding box")
)

const cornerCount = 4

// ParsePolygon builds a closed quadrilateral from the first four (lat, lon) corners.
func ParsePolygon(coordinates string) (orb.Polygon, error) {
	tokens := strings.Fields(coordinates)
	if len(tokens) < cornerCount*2 {
		return nil, fmt.Errorf("%w: expected at least %d numbers, got %d", ErrMalformedCoordinates, cornerCount*2, len(tokens))
	}

	ring := make(orb.Ring, 0, cornerCount+1)
	for i := 0; i < cornerCount; i++ {
		lat, err := strconv.ParseFloat(tokens[2*i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: latitude %q: %v", ErrMalformedCoordinates, tokens[2*i], err)
		}
		lon, err := strconv.ParseFloat(tokens[2*i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: longitude %q: %v", ErrMalformedCoordinates, tokens[2*i+1], err)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	ring = append(ring, ring[0])

	return orb.Polygon{ring}, nil
}

func parseBoundingBox(bbox string) ([4]float64, []string, error) {
	var values [4]float64
	tokens := strings.Split(bbox, ",")
	if len(tokens) < 4 {
		return values, nil, fmt.Errorf("%w: expected 4 numbers, got %q", ErrMalformedBoundingBox, bbox)
	}
	for i := range values {
		tokens[i] = strings.TrimSpace(tokens[i])
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return values, nil, fmt.Errorf("%w: %q: %v", ErrMalformedBoundingBox, tokens[i], err)
		}
		values[i] = v
	}
	return values, tokens[:4], nil
}

// BoundingBoxToCoordinates converts "lonmin,latmin,lonmax,latmax" into the catalog's
// ten number (lat lon) string, NW > SW > SE > NE > NW. The input tokens are kept verbatim.
func BoundingBoxToCoordinates(bbox string) (string, error) {
	_, t, err := parseBoundingBox(bbox)
	if err != nil {
		return "", err
	}
	lonMin, latMin, lonMax, latMax := t[0], t[1], t[2], t[3]
	return strings.Join([]string{
		latMax, lonMin,
		latMin, lonMin,
		latMin, lonMax,
		latMax, lonMax,
		latMax, lonMin,
	}, " "), nil
}

// ParseBoundingBox builds the rectangle of a bounding box string with the footprint winding.
func ParseBoundingBox(bbox string) (orb.Polygon, error) {
	coordinates, err := BoundingBoxToCoordinates(bbox)
	if err != nil {
		return nil, err
	}
	return ParsePolygon(coordinates)
}

// Bounds returns lonmin, latmin, lonmax, latmax.
func Bounds(p orb.Polygon) [4]float64 {
	b := p.Bound()
	return [4]float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
}

// FormatBoundingBox is the inverse of ParseBoundingBox bounds.
func FormatBoundingBox(bounds [4]float64) string {
	parts := make([]string, len(bounds))
	for i, v := range bounds {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// IsDegenerate reports a polygon without area, e.g. built from repeated coordinates.
func IsDegenerate(p orb.Polygon) bool {
	if len(p) == 0 || len(p[0]) < 4 {
		return true
	}
	return planar.Area(p) == 0
}
