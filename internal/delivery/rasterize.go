package delivery

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/raster"
	"github.com/forest-guardian/smap-coverage-cli/internal/report"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

type RasterizeSummary struct {
	Rasters []string
	Failed  map[string]error
}

// RasterizeGranules converts the downloaded granules of every workbook in downloaded into one
// <date>.tif per date. Dates with several granules are merged with a per pixel maximum.
func RasterizeGranules(ctx context.Context, cfg properties.Config, log zerolog.Logger) (RasterizeSummary, error) {
	summary := RasterizeSummary{Failed: map[string]error{}}

	workbooks, err := globSorted(cfg.Path(properties.DownloadedDir), "*.xlsx")
	if err != nil {
		return summary, err
	}
	rasterDir, err := cfg.EnsureDir(properties.RasterDir)
	if err != nil {
		return summary, err
	}
	tempDir := cfg.Path(properties.RasterTempDir)
	defer os.RemoveAll(tempDir)

	for _, wb := range workbooks {
		rows, err := report.ReadSelection(wb)
		if err != nil {
			log.Error().Err(err).Str("workbook", wb).Msg("Failed to read selection workbook")
			continue
		}

		bar := progressbar.Default(int64(len(rows)), "Rasterizing "+filepath.Base(wb))
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			out := filepath.Join(rasterDir, row.Date+".tif")
			if err := rasterizeRow(cfg, row, out, tempDir); err != nil {
				log.Error().Err(err).Str("date", row.Date).Msg("Failed to rasterize date")
				summary.Failed[row.Date] = err
			} else {
				summary.Rasters = append(summary.Rasters, out)
			}
			bar.Add(1)
		}

		if _, err := moveFile(wb, cfg.Path(properties.RasterizedDir)); err != nil {
			return summary, err
		}
	}

	log.Info().Int("rasters", len(summary.Rasters)).Int("failed", len(summary.Failed)).Msg("Rasterize done")
	return summary, nil
}

func granulePath(cfg properties.Config, url string) string {
	return cfg.Path(properties.DownloadDir, path.Base(url))
}

func rasterizeRow(cfg properties.Config, row report.SelectionRow, out, tempDir string) error {
	urls := row.URLs(cfg.Earthdata.AllPolygons)
	switch len(urls) {
	case 0:
		return fmt.Errorf("no granule selected")
	case 1:
		return raster.ConvertH5Band(granulePath(cfg, urls[0]), cfg.Raster.Band, out, cfg.Raster.NoData)
	}

	if err := os.RemoveAll(tempDir); err != nil {
		return err
	}
	if err := os.MkdirAll(tempDir, os.ModePerm); err != nil {
		return err
	}
	var parts []string
	for _, u := range urls {
		name := path.Base(u)
		part := filepath.Join(tempDir, strings.TrimSuffix(name, filepath.Ext(name))+".tif")
		if err := raster.ConvertH5Band(granulePath(cfg, u), cfg.Raster.Band, part, cfg.Raster.NoData); err != nil {
			return err
		}
		parts = append(parts, part)
	}
	return raster.MergeMaxFiles(parts, out, cfg.Raster.NoData)
}
