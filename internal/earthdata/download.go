package earthdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// Summary reports one download run. Failed maps urls to their error.
type Summary struct {
	Downloaded []string
	Failed     map[string]error
}

// Downloader fetches files one after the other with a single attempt each.
type Downloader struct {
	client   *http.Client
	log      zerolog.Logger
	progress io.Writer
}

func NewDownloader(client *http.Client, log zerolog.Logger) *Downloader {
	return &Downloader{client: client, log: log, progress: os.Stderr}
}

// WithProgress redirects progress output; io.Discard silences it.
func (d *Downloader) WithProgress(w io.Writer) *Downloader {
	d.progress = w
	return d
}

// Download stores every url in dir under its last path element. Failures are logged and the
// run goes on with the next url.
func (d *Downloader) Download(ctx context.Context, urls []string, dir string) Summary {
	summary := Summary{Failed: make(map[string]error)}
	width := len(strconv.Itoa(len(urls)))

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			summary.Failed[u] = err
			continue
		}
		filename := path.Base(u)
		fmt.Fprintf(d.progress, "%0*d/%d: %s\n", width, i+1, len(urls), filename)

		target := filepath.Join(dir, filename)
		if err := d.fetch(ctx, u, target); err != nil {
			d.log.Error().Err(err).Str("url", u).Msg("Download failed")
			summary.Failed[u] = err
			continue
		}
		summary.Downloaded = append(summary.Downloaded, target)
	}
	return summary
}

func (d *Downloader) fetch(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP error %d, %s: %s", resp.StatusCode, resp.Status, string(body))
	}

	tmp := target + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(d.progress),
		progressbar.OptionSetDescription(path.Base(target)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
	_, copyErr := io.Copy(io.MultiWriter(f, bar), resp.Body)
	bar.Finish()
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", target, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", target, closeErr)
	}

	return os.Rename(tmp, target)
}
