package swatplus

import (
	"strconv"

	"github.com/forest-guardian/smap-coverage-cli/internal/shapefile"
)

const HRUPointsName = "hru_points.shp"

// WriteHRUPoints writes one point per HRU with its id in the HRU field.
func WriteHRUPoints(path string, points []HRUPoint) error {
	features := make([]shapefile.Point, len(points))
	for i, p := range points {
		features[i] = shapefile.Point{Lon: p.Lon, Lat: p.Lat, Values: []any{strconv.Itoa(p.ID)}}
	}
	return shapefile.WritePoints(path, []shapefile.Field{{Name: "HRU", Type: shapefile.String}}, features)
}
