package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/forest-guardian/smap-coverage-cli/internal/cache"
	"github.com/forest-guardian/smap-coverage-cli/internal/cmr"
	"github.com/forest-guardian/smap-coverage-cli/internal/coverage"
	"github.com/forest-guardian/smap-coverage-cli/internal/footprint"
	"github.com/forest-guardian/smap-coverage-cli/internal/granule"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/report"
	"github.com/rs/zerolog"
)

// SearchCacheMaxAge bounds how long a catalog search is reused.
const SearchCacheMaxAge = 24 * time.Hour

type SearchSummary struct {
	Workbook string
	Records  int
	Skipped  int
	Dates    int
	KMLFiles []string
	Counts   map[coverage.Status]int
}

// SearchAndFilter queries the catalog, resolves the covering granules of every date and writes
// the selection workbook into ready_for_download, plus one KML per date.
func SearchAndFilter(ctx context.Context, cfg properties.Config, log zerolog.Logger) (SearchSummary, error) {
	var summary SearchSummary

	aoi, err := footprint.ResolveAreaOfInterest(cfg.Search.BoundingBox, cfg.Path(properties.BoundingBoxDir))
	if err != nil {
		return summary, fmt.Errorf("failed to resolve area of interest: %w", err)
	}
	log.Info().Str("bounding_box", aoi.BoundingBox).Msg("Area of interest")

	client := cmr.NewClient(cfg.CMR).WithLogger(log)
	if cfg.CMR.Cache {
		fc := cache.NewFileCache[cmr.SearchResult](cfg.Path(properties.CacheDir, "cmr"), SearchCacheMaxAge)
		if removed, err := fc.Prune(); err != nil {
			log.Warn().Err(err).Msg("Failed to prune catalog cache")
		} else if removed > 0 {
			log.Debug().Int("entries", removed).Msg("Pruned stale catalog cache entries")
		}
		client = client.WithCache(fc)
	}

	start := time.Now()
	result, err := client.Search(ctx, cmr.Query{
		ShortName:      cfg.Search.ShortName,
		Version:        cfg.Search.Version,
		TimeStart:      cfg.Search.TimeStart,
		TimeEnd:        cfg.Search.TimeEnd,
		BoundingBox:    aoi.BoundingBox,
		Polygon:        cfg.Search.Polygon,
		FilenameFilter: cfg.Search.FilenameFilter,
	})
	if err != nil {
		return summary, fmt.Errorf("failed to search catalog: %w", err)
	}
	summary.Records = len(result.Records)
	summary.Skipped = result.Skipped

	resolver, err := coverage.NewResolver(aoi.Polygon,
		coverage.WithLogger(log),
		coverage.WithWarnAbove(cfg.Coverage.WarnAbove))
	if err != nil {
		return summary, err
	}

	groups := granule.GroupByDate(result.Records)
	reports, err := report.Assemble(ctx, resolver, groups, cfg.Coverage.Workers)
	if err != nil {
		return summary, fmt.Errorf("failed to assemble coverage report: %w", err)
	}
	summary.Dates = len(reports)
	summary.Counts = report.Counts(reports)

	if cfg.Coverage.KML {
		kmlDir, err := cfg.EnsureDir(properties.KMLDir)
		if err != nil {
			return summary, err
		}
		for _, rep := range reports {
			path, err := report.WriteKML(kmlDir, aoi, rep)
			if err != nil {
				return summary, err
			}
			summary.KMLFiles = append(summary.KMLFiles, path)
		}
	}

	for _, dir := range []string{properties.DownloadedDir, properties.RasterizedDir} {
		if _, err := cfg.EnsureDir(dir); err != nil {
			return summary, err
		}
	}
	readyDir, err := cfg.EnsureDir(properties.ReadyForDownloadDir)
	if err != nil {
		return summary, err
	}
	from, to := cfg.Search.DateRange()
	summary.Workbook = filepath.Join(readyDir, report.SelectionFileName(from, to))
	if err := report.WriteSelection(summary.Workbook, report.Flatten(reports)); err != nil {
		return summary, err
	}

	log.Info().
		Int("records", summary.Records).
		Int("dates", summary.Dates).
		Int("covered", summary.Counts[coverage.StatusCovered]).
		Int("uncovered", summary.Counts[coverage.StatusUncovered]).
		Int("malformed", summary.Counts[coverage.StatusMalformed]).
		Dur("elapsed", time.Since(start)).
		Str("workbook", summary.Workbook).
		Msg("Catalog search and filter done")
	return summary, nil
}
