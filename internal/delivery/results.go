package delivery

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/forest-guardian/smap-coverage-cli/internal/output"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/statistics"
	"github.com/forest-guardian/smap-coverage-cli/internal/swatplus"
	"github.com/forest-guardian/smap-coverage-cli/internal/utils"
	"github.com/rs/zerolog"
)

func toSeries(name string, means []swatplus.MonthlyMean, c color.Color) output.Series {
	s := output.Series{Name: name, Color: c}
	for _, m := range means {
		s.Labels = append(s.Labels, m.Period)
		s.Values = append(s.Values, m.Value)
	}
	return s
}

// PlotSubbasins draws, for every subbasin, the monthly sw_final against the monthly SMAP value.
func PlotSubbasins(ctx context.Context, cfg properties.Config, log zerolog.Logger) ([]string, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	sw, err := store.MonthlyMeans(ctx, swatplus.SubbasinSwFinal)
	if err != nil {
		return nil, err
	}
	sm, err := store.MonthlyMeans(ctx, swatplus.SubbasinSoilMoisture)
	if err != nil {
		return nil, err
	}
	swBySub := swatplus.SeriesByKey(sw)
	smBySub := swatplus.SeriesByKey(sm)

	plotsDir, err := cfg.EnsureDir(properties.PlotsDir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, sub := range utils.GetSortedKeys(swBySub, true) {
		path := filepath.Join(plotsDir, fmt.Sprintf("subbasin_%d.png", sub))
		left := toSeries("sw_final", swBySub[sub], output.SwFinalColor)
		right := toSeries("soil_moisture_1km", smBySub[sub], output.SoilMoistureColor)
		if err := output.DrawSeriesChart(path, fmt.Sprintf("Subbasin %d", sub), left, right); err != nil {
			log.Error().Err(err).Int("subbasin", sub).Msg("Failed to plot subbasin")
			continue
		}
		paths = append(paths, path)
	}
	log.Info().Int("plots", len(paths)).Str("dir", plotsDir).Msg("Subbasin plots written")
	return paths, nil
}

// BuildStatisticsShapefile scores every HRU with metric and writes hru_<metric>.shp and .csv.
func BuildStatisticsShapefile(ctx context.Context, cfg properties.Config, log zerolog.Logger, metric statistics.Metric) (statistics.Summary, error) {
	project, err := swatplus.OpenProject(cfg.ProjectDBPath())
	if err != nil {
		return statistics.Summary{}, err
	}
	defer project.Close()

	points, err := project.HRUPoints(ctx)
	if err != nil {
		return statistics.Summary{}, err
	}
	soils, err := project.HRUSoils(ctx)
	if err != nil {
		return statistics.Summary{}, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return statistics.Summary{}, err
	}
	defer store.Close()

	modeled, err := store.MonthlyMeans(ctx, swatplus.HRUSwFinal)
	if err != nil {
		return statistics.Summary{}, err
	}
	observed, err := store.MonthlyMeans(ctx, swatplus.HRUSoilMoisture)
	if err != nil {
		return statistics.Summary{}, err
	}
	log.Info().Int("swat_rows", len(modeled)).Int("smap_rows", len(observed)).Msg("Monthly series loaded")

	results := statistics.Evaluate(metric, points, modeled, observed, soils)
	for _, r := range results {
		if r.UnknownSoil {
			log.Warn().Int("hru", r.HRU).Str("soil", r.Soil).Msg("No soil correction, HRU left without value")
		}
	}

	dir, err := cfg.EnsureDir(properties.StatisticsDir)
	if err != nil {
		return statistics.Summary{}, err
	}
	base := filepath.Join(dir, statistics.FileName(metric))
	if err := statistics.WriteShapefile(base+".shp", results); err != nil {
		return statistics.Summary{}, fmt.Errorf("failed to write %s shapefile: %w", metric, err)
	}
	if err := statistics.WriteCSV(base+".csv", results); err != nil {
		return statistics.Summary{}, err
	}

	summary := statistics.Summarize(metric, results)
	ev := log.Info().
		Str("metric", metric.Label()).
		Int("hrus", summary.Total).
		Int("valid", summary.Valid).
		Float64("average", summary.Average)
	for _, s := range summary.Shares {
		ev = ev.Int(fmt.Sprintf("above_%.2f_pct", s.Limit), s.Percent)
	}
	ev.Str("path", base+".shp").Msg("Statistics shapefile written")
	return summary, nil
}
