package properties

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		root := t.TempDir()
		t.Setenv("ROOT_PATH", root+"/")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, root, cfg.RootPath)
		assert.Equal(t, "SPL2SMAP_S", cfg.Search.ShortName)
		assert.Equal(t, "003", cfg.Search.Version)
		assert.Equal(t, "NSIDC_ECS", cfg.CMR.Provider)
		assert.Equal(t, 2000, cfg.CMR.PageSize)
		assert.True(t, cfg.Earthdata.AllPolygons)
		assert.Equal(t, -9999.0, cfg.Raster.NoData)
		assert.Equal(t, 0.98, cfg.Raster.OutlierThreshold)
		assert.Equal(t, "Soil_Moisture_Retrieval_Data_1km/soil_moisture_1km", cfg.Raster.Band)
	})

	t.Run("missing root path", func(t *testing.T) {
		t.Setenv("ROOT_PATH", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("ROOT_PATH", t.TempDir())
		t.Setenv("LOG_LEVEL", "verbose")
		_, err := Load()
		assert.ErrorContains(t, err, "invalid log level")
	})

	t.Run("version too long", func(t *testing.T) {
		t.Setenv("ROOT_PATH", t.TempDir())
		t.Setenv("SEARCH_VERSION", "0003")
		_, err := Load()
		assert.ErrorContains(t, err, "version string too long")
	})
}

func TestPaths(t *testing.T) {
	cfg := Config{RootPath: "/srv/smap", SwatPlus: SwatPlusConfig{ProjectDB: "p.sqlite", MergeDB: "m.sqlite"}}

	assert.Equal(t, "/srv/smap/data", cfg.DataPath())
	assert.Equal(t, filepath.Join("/srv/smap/data", "filter_result/kml"), cfg.Path(KMLDir))
	assert.Equal(t, "/srv/smap/data/swatplus/p.sqlite", cfg.ProjectDBPath())
	assert.Equal(t, "/srv/smap/data/statistics/m.sqlite", cfg.MergeDBPath())
}

func TestDateRange(t *testing.T) {
	s := SearchConfig{TimeStart: "2021-03-01T00:00:00Z", TimeEnd: "2021-03-31T00:00:00Z"}
	start, end := s.DateRange()
	assert.Equal(t, "2021-03-01", start)
	assert.Equal(t, "2021-03-31", end)
}
