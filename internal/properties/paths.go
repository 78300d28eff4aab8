package properties

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directories of the data/ tree. Each step reads what the previous one left behind.
const (
	BoundingBoxDir      = "bounding_box"
	FilterResultDir     = "filter_result"
	KMLDir              = "filter_result/kml"
	ReadyForDownloadDir = "filter_result/ready_for_download"
	DownloadedDir       = "filter_result/downloaded"
	RasterizedDir       = "filter_result/rasterized"
	DownloadDir         = "download"
	RasterDir           = "raster"
	RasterTempDir       = "raster/tmp"
	SwatPlusDir         = "swatplus"
	HRUShapefileDir     = "swatplus/hru_shapefile"
	StatisticsDir       = "statistics"
	RasterMasksDir      = "raster_masks"
	RasterMeansDir      = "raster_means"
	PlotsDir            = "plots"
	CacheDir            = "cache"
)

func (c Config) DataPath() string {
	return fmt.Sprintf("%s/data", c.RootPath)
}

// Path joins elem under the data directory.
func (c Config) Path(elem ...string) string {
	return filepath.Join(append([]string{c.DataPath()}, elem...)...)
}

// EnsureDir creates the data sub directory if needed and returns its path.
func (c Config) EnsureDir(dir string) (string, error) {
	p := c.Path(dir)
	if err := os.MkdirAll(p, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", p, err)
	}
	return p, nil
}

func (c Config) ProjectDBPath() string {
	return c.Path(SwatPlusDir, c.SwatPlus.ProjectDB)
}

func (c Config) OutputDBPath() string {
	return c.Path(SwatPlusDir, c.SwatPlus.OutputDB)
}

func (c Config) MergeDBPath() string {
	return c.Path(StatisticsDir, c.SwatPlus.MergeDB)
}
