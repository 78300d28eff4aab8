package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/forest-guardian/smap-coverage-cli/internal/coverage"
	"github.com/forest-guardian/smap-coverage-cli/internal/delivery"
	"github.com/forest-guardian/smap-coverage-cli/internal/earthdata"
	"github.com/forest-guardian/smap-coverage-cli/internal/logger"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/statistics"
	"github.com/forest-guardian/smap-coverage-cli/internal/ui"
	"github.com/rs/zerolog"
)

type step struct {
	name  string
	title string
	run   func(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error)
}

var steps = []step{
	{"search", "Search SMAP granules and select the covering ones", runSearch},
	{"download", "Download the selected granules", runDownload},
	{"rasterize", "Rasterize the downloaded granules", runRasterize},
	{"hru-shape", "Build the HRU point shapefile", runHRUShape},
	{"subbasins", "Save the HRU subbasin relations", runSubbasins},
	{"merge", "Merge SWAT+ daily values with SMAP samples", runMerge},
	{"monthly", "Compute monthly means", runMonthly},
	{"plot-subbasins", "Plot the monthly series of every subbasin", runPlotSubbasins},
	{"statistics", "Score the agreement of every HRU", nil},
	{"mask", "Mask the rasters to the area of interest", runMask},
	{"raster-means", "Compute monthly mean rasters", runRasterMeans},
	{"grid", "Draw the monthly raster grid and video", runGrid},
	{"reset", "Remove the derived rasters and shapefiles", runReset},
}

func runSearch(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	s, err := delivery.SearchAndFilter(ctx, cfg, log)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d records, %d dates (%d covered), %d skipped. Workbook %s",
		s.Records, s.Dates, s.Counts[coverage.StatusCovered], s.Skipped, s.Workbook), nil
}

func runDownload(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	s, err := delivery.DownloadGranules(ctx, cfg, log, earthdata.NewTerminalPrompter())
	if err != nil {
		return "", err
	}
	if len(s.Failed) > 0 {
		return "", fmt.Errorf("%d downloads failed, %d succeeded", len(s.Failed), len(s.Downloaded))
	}
	return fmt.Sprintf("%d granules downloaded", len(s.Downloaded)), nil
}

func runRasterize(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	s, err := delivery.RasterizeGranules(ctx, cfg, log)
	if err != nil {
		return "", err
	}
	if len(s.Failed) > 0 {
		return "", fmt.Errorf("%d dates failed to rasterize, %d succeeded", len(s.Failed), len(s.Rasters))
	}
	return fmt.Sprintf("%d rasters written", len(s.Rasters)), nil
}

func runHRUShape(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	n, err := delivery.BuildHRUShapefile(ctx, cfg, log)
	return fmt.Sprintf("%d HRU points", n), err
}

func runSubbasins(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	n, err := delivery.SaveSubbasinRelations(ctx, cfg, log)
	return fmt.Sprintf("%d relations", n), err
}

func runMerge(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	s, err := delivery.MergeDailyValues(ctx, cfg, log)
	if err != nil {
		return "", err
	}
	msg := fmt.Sprintf("%d values over %d dates", s.Values, s.Dates)
	if len(s.MissingRasters) > 0 {
		msg += fmt.Sprintf(", rasters missing for %s", strings.Join(s.MissingRasters, ", "))
	}
	return msg, nil
}

func runMonthly(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	return "monthly tables refreshed", delivery.WriteMonthlyMeans(ctx, cfg, log)
}

func runPlotSubbasins(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	plots, err := delivery.PlotSubbasins(ctx, cfg, log)
	return fmt.Sprintf("%d plots", len(plots)), err
}

func statisticsStep(metric statistics.Metric) func(context.Context, properties.Config, zerolog.Logger) (string, error) {
	return func(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
		s, err := delivery.BuildStatisticsShapefile(ctx, cfg, log, metric)
		if err != nil {
			return "", err
		}
		return formatSummary(s), nil
	}
}

func formatSummary(s statistics.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d HRUs scored, average %.3f", s.Metric.Label(), s.Valid, s.Total, s.Average)
	for _, share := range s.Shares {
		fmt.Fprintf(&b, ", %d%% above %.2f", share.Percent, share.Limit)
	}
	return b.String()
}

func runMask(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	n, err := delivery.MaskRasters(ctx, cfg, log)
	return fmt.Sprintf("%d rasters masked", n), err
}

func runRasterMeans(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	means, err := delivery.MonthlyRasterMeans(ctx, cfg, log)
	return fmt.Sprintf("%d monthly means", len(means)), err
}

func runGrid(ctx context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	g, err := delivery.BuildMapGrid(ctx, cfg, log)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("grid %s, video %s", g.Grid, g.Video), nil
}

func runReset(_ context.Context, cfg properties.Config, log zerolog.Logger) (string, error) {
	return "derived files removed", delivery.Reset(cfg, log)
}

// pipeline binds the steps to one configuration.
type pipeline struct {
	cfg    properties.Config
	log    zerolog.Logger
	runner ui.StepRunner
}

func (p pipeline) run(ctx context.Context, name string, fn func(context.Context, properties.Config, zerolog.Logger) (string, error)) error {
	log := logger.Step(p.log, name)
	return p.runner.Run(ctx, name, func(ctx context.Context) (string, error) {
		return fn(ctx, p.cfg, log)
	})
}

var menuMetrics = []statistics.Metric{statistics.Pearson, statistics.NashSutcliffe, statistics.RSquared}

func (p pipeline) menuOptions(ctx context.Context) []ui.MenuOption {
	options := make([]ui.MenuOption, 0, len(steps))
	for _, s := range steps {
		s := s
		options = append(options, ui.MenuOption{Title: s.title, Handler: func() {
			fn := s.run
			if fn == nil {
				for i, m := range menuMetrics {
					ui.PrintInfo(fmt.Sprintf("%d. %s\n", i+1, m.Label()))
				}
				choice, err := ui.ReadInt("Select the metric: ", 1, len(menuMetrics))
				if err != nil {
					ui.PrintError(err.Error())
					return
				}
				fn = statisticsStep(menuMetrics[choice-1])
			}
			// errors are already printed and notified
			_ = p.run(ctx, s.name, fn)
		}})
	}
	return options
}
