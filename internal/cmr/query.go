package cmr

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

const versionPadLength = 3

var ErrVersionTooLong = errors.New("version string too long")

// Query is one granule search. Polygon wins over BoundingBox when both are set.
type Query struct {
	ShortName      string
	Version        string
	TimeStart      string
	TimeEnd        string
	BoundingBox    string
	Polygon        string
	FilenameFilter string
}

// VersionParams returns every zero padded form of version, longest first, so that
// "003", "03" and "3" all match.
func VersionParams(version string) ([]string, error) {
	if len(version) > versionPadLength {
		return nil, ErrVersionTooLong
	}
	n, err := strconv.Atoi(version)
	if err != nil {
		return nil, err
	}
	stripped := strconv.Itoa(n)

	var versions []string
	for pad := versionPadLength; len(stripped) <= pad; pad-- {
		versions = append(versions, strings.Repeat("0", pad-len(stripped))+stripped)
	}
	return versions, nil
}

// Values builds the query string parameters, without paging parameters.
func (q Query) Values() (url.Values, error) {
	v := url.Values{}
	v.Set("short_name", q.ShortName)

	if q.Version != "" {
		versions, err := VersionParams(q.Version)
		if err != nil {
			return nil, err
		}
		v["version"] = versions
	}

	if q.TimeStart != "" || q.TimeEnd != "" {
		v.Set("temporal[]", q.TimeStart+","+q.TimeEnd)
	}

	if q.Polygon != "" {
		v.Set("polygon", q.Polygon)
	} else if q.BoundingBox != "" {
		v.Set("bounding_box", q.BoundingBox)
	}

	if q.FilenameFilter != "" {
		v.Set("producer_granule_id[]", q.FilenameFilter)
		v.Set("options[producer_granule_id][pattern]", "true")
	}

	return v, nil
}

// CacheKey identifies the query for the on-disk cache. The client adds its endpoint,
// provider and page size.
func (q Query) CacheKey() []interface{} {
	return []interface{}{q.ShortName, q.Version, q.TimeStart, q.TimeEnd, q.BoundingBox, q.Polygon, q.FilenameFilter}
}
