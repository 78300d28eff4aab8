package delivery

import (
	"context"
	"fmt"

	"github.com/forest-guardian/smap-coverage-cli/internal/earthdata"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/forest-guardian/smap-coverage-cli/internal/report"
	"github.com/rs/zerolog"
)

// SelectedURLs lists the links to fetch for every row, all of them or the covering ones only.
func SelectedURLs(rows []report.SelectionRow, allPolygons bool) []string {
	var urls []string
	for _, row := range rows {
		urls = append(urls, row.URLs(allPolygons)...)
	}
	return urls
}

// DownloadGranules downloads the granules of every workbook in ready_for_download and moves
// each workbook to downloaded once its files were attempted.
func DownloadGranules(ctx context.Context, cfg properties.Config, log zerolog.Logger, prompt earthdata.Prompter) (earthdata.Summary, error) {
	total := earthdata.Summary{Failed: map[string]error{}}

	workbooks, err := globSorted(cfg.Path(properties.ReadyForDownloadDir), "*.xlsx")
	if err != nil {
		return total, err
	}
	if len(workbooks) == 0 {
		log.Warn().Msg("No selection workbook ready for download")
		return total, nil
	}

	creds, err := earthdata.ResolveCredentials(cfg.Earthdata, prompt)
	if err != nil {
		return total, err
	}
	client, err := earthdata.NewHTTPClient(ctx, creds, cfg.Earthdata.Host, 0)
	if err != nil {
		return total, fmt.Errorf("failed to build Earthdata client: %w", err)
	}
	downloadDir, err := cfg.EnsureDir(properties.DownloadDir)
	if err != nil {
		return total, err
	}
	downloader := earthdata.NewDownloader(client, log)

	for _, wb := range workbooks {
		rows, err := report.ReadSelection(wb)
		if err != nil {
			log.Error().Err(err).Str("workbook", wb).Msg("Failed to read selection workbook")
			continue
		}
		urls := SelectedURLs(rows, cfg.Earthdata.AllPolygons)
		log.Info().Str("workbook", wb).Int("files", len(urls)).Msg("Starting download")

		summary := downloader.Download(ctx, urls, downloadDir)
		total.Downloaded = append(total.Downloaded, summary.Downloaded...)
		for u, e := range summary.Failed {
			total.Failed[u] = e
		}

		if _, err := moveFile(wb, cfg.Path(properties.DownloadedDir)); err != nil {
			return total, err
		}
	}

	log.Info().Int("downloaded", len(total.Downloaded)).Int("failed", len(total.Failed)).Msg("Download done")
	return total, ctx.Err()
}
