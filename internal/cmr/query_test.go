package cmr

import (
	"testing"

	"github.com/forest-guardian/smap-coverage-cli/internal/granule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionParams(t *testing.T) {
	tests := []struct {
		version string
		want    []string
	}{
		{"003", []string{"003", "03", "3"}},
		{"3", []string{"003", "03", "3"}},
		{"12", []string{"012", "12"}},
		{"100", []string{"100"}},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := VersionParams(tt.version)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := VersionParams("0003")
	assert.ErrorIs(t, err, ErrVersionTooLong)

	_, err = VersionParams("v3")
	assert.Error(t, err)
}

func TestQueryValues(t *testing.T) {
	t.Run("bounding box", func(t *testing.T) {
		v, err := Query{
			ShortName:   "SPL2SMAP_S",
			Version:     "003",
			TimeStart:   "2020-04-07T00:00:00Z",
			TimeEnd:     "2020-04-08T00:00:00Z",
			BoundingBox: "9.0,35.7,9.8,36.6",
		}.Values()
		require.NoError(t, err)

		assert.Equal(t, "SPL2SMAP_S", v.Get("short_name"))
		assert.Equal(t, []string{"003", "03", "3"}, v["version"])
		assert.Equal(t, "2020-04-07T00:00:00Z,2020-04-08T00:00:00Z", v.Get("temporal[]"))
		assert.Equal(t, "9.0,35.7,9.8,36.6", v.Get("bounding_box"))
		assert.Empty(t, v.Get("polygon"))
		assert.Empty(t, v.Get("producer_granule_id[]"))
	})

	t.Run("polygon wins", func(t *testing.T) {
		v, err := Query{ShortName: "SPL2SMAP_S", BoundingBox: "1,2,3,4", Polygon: "1,2,3,2,3,4,1,2"}.Values()
		require.NoError(t, err)
		assert.Equal(t, "1,2,3,2,3,4,1,2", v.Get("polygon"))
		assert.Empty(t, v.Get("bounding_box"))
	})

	t.Run("filename filter", func(t *testing.T) {
		v, err := Query{ShortName: "SPL2SMAP_S", FilenameFilter: "*_T1*"}.Values()
		require.NoError(t, err)
		assert.Equal(t, "*_T1*", v.Get("producer_granule_id[]"))
		assert.Equal(t, "true", v.Get("options[producer_granule_id][pattern]"))
	})

	t.Run("bad version", func(t *testing.T) {
		_, err := Query{ShortName: "SPL2SMAP_S", Version: "1234"}.Values()
		assert.ErrorIs(t, err, ErrVersionTooLong)
	})
}

func TestEntryToRecord(t *testing.T) {
	e := Entry{
		ProducerGranuleID: "SMAP_L2_SM_SP_1AIWDV_20200407T052100.h5",
		TimeStart:         "2020-04-07T05:21:00.000Z",
		Polygons:          [][]string{{"37.8 7.8 35.8 7.8 35.8 11.1 37.8 11.1 37.8 7.8"}},
		Links:             []granule.Link{{Href: "https://n5eil01u.ecs.nsidc.org/a.h5"}, {Href: "https://other"}},
	}
	rec, err := EntryToRecord(e)
	require.NoError(t, err)
	assert.Equal(t, "2020-04-07", rec.Date())
	assert.Equal(t, "https://n5eil01u.ecs.nsidc.org/a.h5", rec.Link.Href)
	assert.Equal(t, e.Polygons[0][0], rec.Polygon)
	require.Len(t, rec.Footprint, 1)

	e.Links = nil
	_, err = EntryToRecord(e)
	assert.ErrorIs(t, err, errIncompleteEntry)
}
