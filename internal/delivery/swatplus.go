package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/raster"
	"github.com/forest-guardian/smap-coverage-cli/internal/shapefile"
	"github.com/forest-guardian/smap-coverage-cli/internal/swatplus"
	"github.com/forest-guardian/smap-coverage-cli/internal/utils"
	"github.com/gammazero/workerpool"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

func hruShapefilePath(cfg properties.Config) string {
	return cfg.Path(properties.HRUShapefileDir, swatplus.HRUPointsName)
}

// BuildHRUShapefile writes the HRU centroids of the project database as a point shapefile.
func BuildHRUShapefile(ctx context.Context, cfg properties.Config, log zerolog.Logger) (int, error) {
	project, err := swatplus.OpenProject(cfg.ProjectDBPath())
	if err != nil {
		return 0, err
	}
	defer project.Close()

	points, err := project.HRUPoints(ctx)
	if err != nil {
		return 0, err
	}
	path := hruShapefilePath(cfg)
	if err := swatplus.WriteHRUPoints(path, points); err != nil {
		return 0, fmt.Errorf("failed to write HRU shapefile: %w", err)
	}
	log.Info().Int("hrus", len(points)).Str("path", path).Msg("HRU shapefile written")
	return len(points), nil
}

func openStore(ctx context.Context, cfg properties.Config) (*swatplus.Store, error) {
	if _, err := cfg.EnsureDir(properties.StatisticsDir); err != nil {
		return nil, err
	}
	return swatplus.OpenStore(ctx, cfg.MergeDBPath())
}

// SaveSubbasinRelations copies the HRU to subbasin mapping into the merge database.
func SaveSubbasinRelations(ctx context.Context, cfg properties.Config, log zerolog.Logger) (int, error) {
	project, err := swatplus.OpenProject(cfg.ProjectDBPath())
	if err != nil {
		return 0, err
	}
	defer project.Close()

	rels, err := project.SubbasinRelations(ctx)
	if err != nil {
		return 0, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.ReplaceSubbasinRelations(ctx, rels); err != nil {
		return 0, err
	}
	log.Info().Int("relations", len(rels)).Msg("HRU subbasin relations saved")
	return len(rels), nil
}

type MergeSummary struct {
	Dates          int
	Values         int
	MissingRasters []string
	Zero           int
	NoData         int
}

// readHRUPoints loads the points written by BuildHRUShapefile.
func readHRUPoints(path string) ([]int, []raster.Point, error) {
	points, attrs, err := shapefile.ReadPoints(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read HRU shapefile: %w", err)
	}
	ids := make([]int, len(points))
	coords := make([]raster.Point, len(points))
	for i, p := range points {
		id, err := strconv.Atoi(attrs[i]["HRU"])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid HRU id %q: %w", attrs[i]["HRU"], err)
		}
		ids[i] = id
		coords[i] = raster.Point{Lon: p.Lon, Lat: p.Lat}
	}
	return ids, coords, nil
}

// SampleDates samples the <date>.tif raster of rasterDir at every point, one pool task per
// date. A missing or unreadable raster yields 0 for every HRU of that date.
func SampleDates(dates []string, rasterDir string, ids []int, coords []raster.Point, workers int, log zerolog.Logger) (map[swatplus.SampleKey]float64, []string) {
	samples := make(map[swatplus.SampleKey]float64, len(dates)*len(ids))
	var missing []string

	bar := progressbar.Default(int64(len(dates)), "Sampling rasters")
	wp := workerpool.New(workers)
	for _, date := range dates {
		wp.Submit(func() {
			values, err := raster.SampleAll(filepath.Join(rasterDir, date+".tif"), coords, 0)
			utils.ExecuteWithMutex(func() {
				defer bar.Add(1)
				if err != nil {
					log.Debug().Err(err).Str("date", date).Msg("No raster for date")
					missing = append(missing, date)
					for _, id := range ids {
						samples[swatplus.SampleKey{Date: date, Unit: id}] = 0
					}
					return
				}
				for i, id := range ids {
					samples[swatplus.SampleKey{Date: date, Unit: id}] = values[i]
				}
			})
		})
	}
	wp.StopWait()
	return samples, missing
}

// MergeDailyValues joins the SWAT+ daily water balance with the SMAP value sampled at each HRU
// and stores the result in hru_day_values.
func MergeDailyValues(ctx context.Context, cfg properties.Config, log zerolog.Logger) (MergeSummary, error) {
	var summary MergeSummary

	output, err := swatplus.OpenOutput(cfg.OutputDBPath())
	if err != nil {
		return summary, err
	}
	defer output.Close()
	balances, err := output.DailyBalances(ctx)
	if err != nil {
		return summary, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return summary, err
	}
	defer store.Close()
	rels, err := store.SubbasinRelations(ctx)
	if err != nil {
		return summary, err
	}
	if len(rels) == 0 {
		return summary, fmt.Errorf("no HRU subbasin relation saved, run the subbasins step first")
	}

	ids, coords, err := readHRUPoints(hruShapefilePath(cfg))
	if err != nil {
		return summary, err
	}

	dates := swatplus.Dates(balances)
	summary.Dates = len(dates)
	log.Info().Int("days", len(dates)).Int("hrus", len(ids)).Msg("Sampling SMAP rasters")

	samples, missing := SampleDates(dates, cfg.Path(properties.RasterDir), ids, coords, cfg.Raster.SampleWorkers, log)
	summary.MissingRasters = missing
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	values := swatplus.JoinDailyValues(balances, rels, samples)
	for _, v := range values {
		switch v.SoilMoisture {
		case 0:
			summary.Zero++
		case cfg.Raster.NoData:
			summary.NoData++
		}
	}
	summary.Values = len(values)

	if err := store.ReplaceDailyValues(ctx, values); err != nil {
		return summary, err
	}
	log.Info().
		Int("values", summary.Values).
		Int("missing_rasters", len(missing)).
		Int("zero", summary.Zero).
		Int("nodata", summary.NoData).
		Msg("Daily values merged")
	return summary, nil
}

// WriteMonthlyMeans rebuilds the monthly HRU and subbasin tables of the merge database.
func WriteMonthlyMeans(ctx context.Context, cfg properties.Config, log zerolog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RefreshMonthlyMeans(ctx); err != nil {
		return err
	}
	for _, kind := range []swatplus.MonthlyKind{swatplus.HRUSwFinal, swatplus.HRUSoilMoisture, swatplus.SubbasinSwFinal, swatplus.SubbasinSoilMoisture} {
		means, err := store.MonthlyMeans(ctx, kind)
		if err != nil {
			return err
		}
		log.Info().Str("table", kind.String()).Int("rows", len(means)).Msg("Monthly means written")
	}
	return nil
}
