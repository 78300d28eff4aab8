package cmr

import (
	"errors"
	"fmt"

	"github.com/forest-guardian/smap-coverage-cli/internal/footprint"
	"github.com/forest-guardian/smap-coverage-cli/internal/granule"
)

var errIncompleteEntry = errors.New("entry is missing time_start, polygons or links")

// FeedResponse is the body of a granules.json search.
type FeedResponse struct {
	Feed Feed `json:"feed"`
}

type Feed struct {
	Updated string  `json:"updated"`
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Entry   []Entry `json:"entry"`
}

type Entry struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	ProducerGranuleID string         `json:"producer_granule_id"`
	TimeStart         string         `json:"time_start"`
	TimeEnd           string         `json:"time_end"`
	Polygons          [][]string     `json:"polygons"`
	Links             []granule.Link `json:"links"`
}

// EntryToRecord keeps the first polygon ring and the first link of an entry.
func EntryToRecord(e Entry) (granule.Record, error) {
	if e.TimeStart == "" || len(e.Polygons) == 0 || len(e.Polygons[0]) == 0 || len(e.Links) == 0 {
		return granule.Record{}, fmt.Errorf("%s: %w", e.displayName(), errIncompleteEntry)
	}

	ts, err := granule.ParseTimestamp(e.TimeStart)
	if err != nil {
		return granule.Record{}, fmt.Errorf("%s: %w", e.displayName(), err)
	}

	polygon := e.Polygons[0][0]
	fp, err := footprint.ParsePolygon(polygon)
	if err != nil {
		return granule.Record{}, fmt.Errorf("%s: %w", e.displayName(), err)
	}

	return granule.Record{
		TimeStart:    ts,
		RawTimeStart: e.TimeStart,
		Polygon:      polygon,
		Footprint:    fp,
		Link:         e.Links[0],
	}, nil
}

func (e Entry) displayName() string {
	if e.ProducerGranuleID != "" {
		return e.ProducerGranuleID
	}
	if e.Title != "" {
		return e.Title
	}
	return e.ID
}
