// Package cmr searches the NASA Common Metadata Repository for granules.
package cmr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/forest-guardian/smap-coverage-cli/internal/cache"
	"github.com/forest-guardian/smap-coverage-cli/internal/granule"
	"github.com/forest-guardian/smap-coverage-cli/internal/properties"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

	ScrollIDHeader    = "CMR-Scroll-Id"
	HitsHeader        = "CMR-Hits"
	SearchAfterHeader = "CMR-Search-After"
)

var ErrEmptyCatalog = errors.New("found no matching granules")

// SearchResult holds every record of every page, in catalog order.
type SearchResult struct {
	Records []granule.Record `json:"records"`
	Hits    int              `json:"hits"`
	Pages   int              `json:"pages"`
	// Skipped counts entries dropped because a field was missing or malformed.
	Skipped int `json:"skipped"`
}

type Client struct {
	baseURL    string
	provider   string
	pageSize   int
	httpClient *http.Client
	cache      cache.CacheService[SearchResult]
	log        zerolog.Logger
}

func NewClient(cfg properties.CMRConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		provider: cfg.Provider,
		pageSize: cfg.PageSize,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		log: zerolog.Nop(),
	}
}

func (c *Client) WithLogger(log zerolog.Logger) *Client {
	c.log = log
	return c
}

// WithCache serves repeated queries from fc instead of the network.
func (c *Client) WithCache(fc cache.CacheService[SearchResult]) *Client {
	c.cache = fc
	return c
}

// cacheKey separates results of the same query fetched from another endpoint or provider,
// or with another page size, since those change which granules come back.
func (c *Client) cacheKey(q Query) string {
	params := append([]interface{}{c.baseURL, c.provider, c.pageSize}, q.CacheKey()...)
	return c.cache.GenerateKey(params...)
}

// Search pages through every result of q. The first response carries a scroll id that is sent
// back on the next requests; the loop ends on the first empty page.
func (c *Client) Search(ctx context.Context, q Query) (*SearchResult, error) {
	var key string
	if c.cache != nil {
		key = c.cacheKey(q)
		if cached, ok := c.cache.Get(key); ok {
			c.log.Info().Int("records", len(cached.Records)).Msg("Catalog search served from cache")
			return &cached, nil
		}
	}

	values, err := q.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if c.provider != "" {
		values.Set("provider", c.provider)
	}
	values["sort_key[]"] = []string{"start_date", "producer_granule_id"}
	values.Set("scroll", "true")
	values.Set("page_size", strconv.Itoa(c.pageSize))

	searchURL := c.baseURL + "/granules.json?" + values.Encode()
	c.log.Debug().Str("url", searchURL).Msg("Querying catalog")

	result := &SearchResult{}
	var scrollID, searchAfter string
	for {
		feed, header, err := c.fetchPage(ctx, searchURL, scrollID, searchAfter)
		if err != nil {
			return nil, err
		}
		if result.Pages == 0 {
			result.Hits, _ = strconv.Atoi(header.Get(HitsHeader))
			c.log.Info().Int("hits", result.Hits).Msg("Found granules")
		}
		if len(feed.Feed.Entry) == 0 {
			break
		}
		result.Pages++

		for _, e := range feed.Feed.Entry {
			rec, err := EntryToRecord(e)
			if err != nil {
				result.Skipped++
				c.log.Warn().Err(err).Msg("Skipping catalog entry")
				continue
			}
			result.Records = append(result.Records, rec)
		}

		if id := header.Get(ScrollIDHeader); id != "" {
			scrollID = id
		} else if sa := header.Get(SearchAfterHeader); sa != "" {
			searchAfter = sa
		} else {
			break
		}
	}

	if len(result.Records) == 0 {
		return result, ErrEmptyCatalog
	}

	if c.cache != nil {
		if err := c.cache.Set(key, *result); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache catalog search")
		}
	}
	return result, nil
}

func (c *Client) fetchPage(ctx context.Context, searchURL, scrollID, searchAfter string) (*FeedResponse, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if scrollID != "" {
		req.Header.Set(ScrollIDHeader, scrollID)
	} else if searchAfter != "" {
		req.Header.Set(SearchAfterHeader, searchAfter)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("CMR API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, nil, fmt.Errorf("CMR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var feed FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}
	return &feed, resp.Header, nil
}
