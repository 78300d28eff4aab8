package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forest-guardian/smap-coverage-cli/internal/footprint"
	"github.com/forest-guardian/smap-coverage-cli/internal/output"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/raster"
	"github.com/rs/zerolog"
)

// MaskRasters crops every daily raster to the area of interest, using the bounding box
// shapefile as cutline when there is one.
func MaskRasters(ctx context.Context, cfg properties.Config, log zerolog.Logger) (int, error) {
	aoi, err := footprint.ResolveAreaOfInterest(cfg.Search.BoundingBox, cfg.Path(properties.BoundingBoxDir))
	if err != nil {
		return 0, fmt.Errorf("failed to resolve area of interest: %w", err)
	}
	if shp, err := footprint.FirstShapefile(cfg.Path(properties.BoundingBoxDir)); err == nil {
		aoi.Shapefile = shp
	}
	src := raster.MaskSource{Cutline: aoi.Shapefile, Bounds: footprint.Bounds(aoi.Polygon)}

	inputs, err := globSorted(cfg.Path(properties.RasterDir), "*.tif")
	if err != nil {
		return 0, err
	}
	outDir, err := cfg.EnsureDir(properties.RasterMasksDir)
	if err != nil {
		return 0, err
	}

	masked := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return masked, err
		}
		out := filepath.Join(outDir, filepath.Base(in))
		if err := raster.Mask(in, out, src, cfg.Raster.NoData); err != nil {
			log.Error().Err(err).Str("raster", in).Msg("Failed to mask raster")
			continue
		}
		masked++
	}
	log.Info().Int("masked", masked).Int("rasters", len(inputs)).Str("cutline", src.Cutline).Msg("Rasters masked")
	return masked, nil
}

// MonthlyRasterMeans averages the masked daily rasters per month.
func MonthlyRasterMeans(ctx context.Context, cfg properties.Config, log zerolog.Logger) ([]string, error) {
	inputs, err := globSorted(cfg.Path(properties.RasterMasksDir), "*.tif")
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no masked raster in %s", cfg.Path(properties.RasterMasksDir))
	}
	outDir, err := cfg.EnsureDir(properties.RasterMeansDir)
	if err != nil {
		return nil, err
	}
	written, err := raster.MonthlyMeans(inputs, outDir, cfg.Raster.OutlierThreshold)
	if err != nil {
		return written, err
	}
	log.Info().Int("months", len(written)).Str("dir", outDir).Msg("Monthly raster means written")
	return written, ctx.Err()
}

type MapGrid struct {
	Grid   string
	Frames []string
	Video  string
}

// BuildMapGrid draws the monthly means as one grid image, renders one frame per month and
// assembles the frames into a video.
func BuildMapGrid(ctx context.Context, cfg properties.Config, log zerolog.Logger) (MapGrid, error) {
	var result MapGrid

	means, err := globSorted(cfg.Path(properties.RasterMeansDir), "*.tif")
	if err != nil {
		return result, err
	}
	if len(means) == 0 {
		return result, fmt.Errorf("no monthly raster in %s", cfg.Path(properties.RasterMeansDir))
	}
	plotsDir, err := cfg.EnsureDir(properties.PlotsDir)
	if err != nil {
		return result, err
	}

	result.Grid = filepath.Join(plotsDir, "raster_grid.png")
	if err := output.DrawRasterGrid(means, cfg.Raster.GridRows, cfg.Raster.GridCols, result.Grid, output.SoilMoistureScale); err != nil {
		return result, fmt.Errorf("failed to draw raster grid: %w", err)
	}

	framesDir := filepath.Join(plotsDir, "frames")
	if err := os.MkdirAll(framesDir, os.ModePerm); err != nil {
		return result, err
	}
	for _, m := range means {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		frame := filepath.Join(framesDir, output.Title(m)+".png")
		if err := output.DrawRaster(m, frame, output.SoilMoistureScale); err != nil {
			return result, err
		}
		result.Frames = append(result.Frames, frame)
	}

	result.Video, err = output.CreateVideoFromImages(result.Frames, filepath.Join(plotsDir, "monthly_means"))
	if err != nil {
		return result, fmt.Errorf("failed to create video: %w", err)
	}
	log.Info().Str("grid", result.Grid).Str("video", result.Video).Int("months", len(means)).Msg("Map grid written")
	return result, nil
}

// Reset removes the daily rasters and the HRU shapefile. The SWAT+ databases are kept.
func Reset(cfg properties.Config, log zerolog.Logger) error {
	for _, dir := range []string{properties.RasterDir, properties.HRUShapefileDir} {
		p := cfg.Path(dir)
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
		log.Info().Str("dir", p).Msg("Removed")
	}
	return nil
}
