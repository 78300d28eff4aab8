package granule

import (
	"fmt"
	"path"
	"time"

	"github.com/paulmach/orb"
)

// TimestampLayout is the catalog time_start layout, e.g. 2021-03-01T05:38:07.000Z.
const TimestampLayout = "2006-01-02T15:04:05.999999999Z"

const DateLayout = "2006-01-02"

// Link is the first link of a catalog entry, the granule download.
type Link struct {
	Href  string `json:"href"`
	Rel   string `json:"rel,omitempty"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Record is one granule: acquisition start, footprint and download link.
type Record struct {
	TimeStart    time.Time   `json:"time_start"`
	RawTimeStart string      `json:"raw_time_start"`
	Polygon      string      `json:"polygon"`
	Footprint    orb.Polygon `json:"footprint"`
	Link         Link        `json:"link"`
}

// Date is the calendar day of the record.
func (r Record) Date() string {
	return r.TimeStart.Format(DateLayout)
}

// Description is the human readable acquisition time.
func (r Record) Description() string {
	return r.TimeStart.Format("2006-01-02 15:04:05")
}

// Filename is the last element of the download link.
func (r Record) Filename() string {
	return path.Base(r.Link.Href)
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339Nano, s)
	if rfcErr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
}

// DateGroup holds the records of one calendar day, in input order.
type DateGroup struct {
	Date    string
	Records []Record
}

func (g DateGroup) Footprints() []orb.Polygon {
	footprints := make([]orb.Polygon, len(g.Records))
	for i, r := range g.Records {
		footprints[i] = r.Footprint
	}
	return footprints
}

// GroupByDate splits records sorted by time into one group per calendar day. A new group
// starts each time the day differs from the previous record; unsorted input therefore yields
// several groups for the same day.
func GroupByDate(records []Record) []DateGroup {
	var groups []DateGroup
	for _, r := range records {
		date := r.Date()
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].Records = append(groups[n-1].Records, r)
			continue
		}
		groups = append(groups, DateGroup{Date: date, Records: []Record{r}})
	}
	return groups
}
