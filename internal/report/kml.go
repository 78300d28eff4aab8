package report

import (
	"encoding/xml"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/forest-guardian/smap-coverage-cli/internal/footprint"
	"github.com/paulmach/orb"
	kml "github.com/twpayne/go-kml"
)

const kmlAltitude = 100

var (
	// aabbggrr bf994c00
	areaColor = color.RGBA{R: 0x00, G: 0x4c, B: 0x99, A: 0xbf}
	// aabbggrr 7d3399ff
	coverColor = color.RGBA{R: 0xff, G: 0x99, B: 0x33, A: 0x7d}
)

// BuildKML renders every footprint of the date and the area of interest last. Covering
// footprints use the orange style and the area the blue one; the other footprints carry no
// style. Placemark ids run from 0, the area taking the index after the last footprint.
func BuildKML(aoi footprint.AreaOfInterest, rep DateReport) *kml.CompoundElement {
	blue := kml.SharedStyle("transBluePoly",
		kml.LineStyle(kml.Width(1.5)),
		kml.PolyStyle(kml.Color(areaColor)),
	)
	orange := kml.SharedStyle("transOrangePoly",
		kml.LineStyle(kml.Width(1.5)),
		kml.PolyStyle(kml.Color(coverColor)),
	)

	covering := make(map[int]bool, len(rep.Resolution.Indices))
	for _, i := range rep.Resolution.Indices {
		covering[i] = true
	}

	children := []kml.Element{blue, orange}
	for i, rec := range rep.Records {
		elems := []kml.Element{
			kml.Name(strconv.Itoa(i)),
			kml.Description(rec.Description()),
		}
		if covering[i] {
			elems = append(elems, kml.StyleURL(orange.URL()))
		}
		elems = append(elems, polygonElement(rec.Footprint))
		children = append(children, placemark(i, elems...))
	}

	area := len(rep.Records)
	children = append(children, placemark(area,
		kml.Name(strconv.Itoa(area)),
		kml.Description("Requested bounding box"),
		kml.StyleURL(blue.URL()),
		polygonElement(aoi.Polygon),
	))

	return kml.KML(kml.Document(children...))
}

func placemark(id int, children ...kml.Element) *kml.CompoundElement {
	pm := kml.Placemark(children...)
	pm.Attr = append(pm.Attr, xml.Attr{Name: xml.Name{Local: "id"}, Value: strconv.Itoa(id)})
	return pm
}

func polygonElement(p orb.Polygon) *kml.CompoundElement {
	var coords []kml.Coordinate
	if len(p) > 0 {
		for _, pt := range p[0] {
			coords = append(coords, kml.Coordinate{Lon: pt.Lon(), Lat: pt.Lat(), Alt: kmlAltitude})
		}
	}
	return kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(coords...))))
}

// WriteKML writes the date's KML into dir under its label and returns the file path.
func WriteKML(dir string, aoi footprint.AreaOfInterest, rep DateReport) (string, error) {
	path := filepath.Join(dir, rep.Label)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create KML file: %w", err)
	}
	defer f.Close()

	if err := BuildKML(aoi, rep).WriteIndent(f, "", "  "); err != nil {
		return "", fmt.Errorf("failed to write KML %s: %w", path, err)
	}
	return path, nil
}
