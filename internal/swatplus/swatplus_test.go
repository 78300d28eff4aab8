package swatplus

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/smap-coverage-cli/internal/shapefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

func seed(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sql.Open(driverName, path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}
}

func projectDB(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "project.sqlite")
	seed(t, path,
		`CREATE TABLE hru_con (id INTEGER, lon REAL, lat REAL)`,
		`INSERT INTO hru_con VALUES (2, 9.4, 36.5), (1, 9.1, 36.2), (3, 9.6, 36.1)`,
		`CREATE TABLE gis_channels (id INTEGER, subbasin INTEGER)`,
		`INSERT INTO gis_channels VALUES (10, 1), (11, 2)`,
		`CREATE TABLE gis_lsus (id INTEGER, channel INTEGER)`,
		`INSERT INTO gis_lsus VALUES (100, 10), (101, 11)`,
		`CREATE TABLE gis_hrus (id INTEGER, lsu INTEGER)`,
		`INSERT INTO gis_hrus VALUES (1, 100), (2, 101), (3, 101)`,
		`CREATE TABLE soils_sol (id INTEGER, name TEXT)`,
		`INSERT INTO soils_sol VALUES (1, 'S-700'), (2, 'S-705')`,
		`CREATE TABLE hru_data_hru (id INTEGER, soil_id INTEGER)`,
		`INSERT INTO hru_data_hru VALUES (1, 1), (2, 2), (3, 2)`,
	)
	return path
}

func outputDB(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "output.sqlite")
	seed(t, path,
		`CREATE TABLE hru_wb_day (yr INTEGER, mon INTEGER, day INTEGER, unit INTEGER,
			sw_final REAL, sw_ave REAL, sw_init REAL, et REAL, precip REAL)`,
		`INSERT INTO hru_wb_day VALUES
			(2021, 3, 2, 1, 30, 29, 28, 1, 0),
			(2021, 3, 1, 2, 20, 19, 18, 1, 2),
			(2021, 3, 1, 1, 10, 9, 8, 1, 3)`,
	)
	return path
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	p, err := OpenProject(projectDB(t))
	require.NoError(t, err)
	defer p.Close()

	points, err := p.HRUPoints(ctx)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, HRUPoint{ID: 1, Lon: 9.1, Lat: 36.2}, points[0])

	n, err := p.HRUCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rels, err := p.SubbasinRelations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SubbasinRelation{{1, 1}, {2, 2}, {3, 2}}, rels)

	soils, err := p.HRUSoils(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "S-700", 2: "S-705", 3: "S-705"}, soils)
}

func TestOpenProjectMissing(t *testing.T) {
	_, err := OpenProject(filepath.Join(t.TempDir(), "missing.sqlite"))
	assert.Error(t, err)
}

func TestOutputDailyBalances(t *testing.T) {
	o, err := OpenOutput(outputDB(t))
	require.NoError(t, err)
	defer o.Close()

	balances, err := o.DailyBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, balances, 3)
	assert.Equal(t, "2021-03-01", balances[0].Date())
	assert.Equal(t, 1, balances[0].Unit)
	assert.Equal(t, []string{"2021-03-01", "2021-03-02"}, Dates(balances))
}

func TestSwatDate(t *testing.T) {
	assert.Equal(t, "2021-03-09", SwatDate(2021, 3, 9))
	assert.Equal(t, "2021-12-31", SwatDate(2021, 12, 31))
}

func TestJoinDailyValues(t *testing.T) {
	balances := []DailyBalance{
		{Year: 2021, Month: 3, Day: 1, Unit: 1, SwFinal: 10},
		{Year: 2021, Month: 3, Day: 1, Unit: 9, SwFinal: 99},
		{Year: 2021, Month: 3, Day: 2, Unit: 1, SwFinal: 30},
	}
	rels := []SubbasinRelation{{HRU: 1, Subbasin: 4}}
	samples := map[SampleKey]float64{{Date: "2021-03-01", Unit: 1}: 0.25}

	values := JoinDailyValues(balances, rels, samples)
	require.Len(t, values, 2)
	assert.Equal(t, 4, values[0].Subbasin)
	assert.Equal(t, 0.25, values[0].SoilMoisture)
	assert.Equal(t, 0.0, values[1].SoilMoisture)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "merge.sqlite")
	s, err := OpenStore(ctx, path)
	require.NoError(t, err)

	rels := []SubbasinRelation{{1, 1}, {2, 1}}
	require.NoError(t, s.ReplaceSubbasinRelations(ctx, rels))
	require.NoError(t, s.ReplaceSubbasinRelations(ctx, rels))
	got, err := s.SubbasinRelations(ctx)
	require.NoError(t, err)
	assert.Equal(t, rels, got)

	values := []DailyValue{
		{SwatDate: "2021-03-01", Year: 2021, Month: 3, Unit: 1, SwFinal: 10, Subbasin: 1, SoilMoisture: 0.2},
		{SwatDate: "2021-03-02", Year: 2021, Month: 3, Unit: 1, SwFinal: 20, Subbasin: 1, SoilMoisture: 0},
		{SwatDate: "2021-03-01", Year: 2021, Month: 3, Unit: 2, SwFinal: 30, Subbasin: 1, SoilMoisture: 0.4},
		{SwatDate: "2021-04-01", Year: 2021, Month: 4, Unit: 2, SwFinal: 40, Subbasin: 1, SoilMoisture: -9999},
	}
	require.NoError(t, s.ReplaceDailyValues(ctx, values))
	stored, err := s.DailyValues(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	require.NoError(t, s.RefreshMonthlyMeans(ctx))
	require.NoError(t, s.RefreshMonthlyMeans(ctx))

	hruSw, err := s.MonthlyMeans(ctx, HRUSwFinal)
	require.NoError(t, err)
	assert.Equal(t, []MonthlyMean{
		{Period: "2021-03", Key: 1, Value: 15},
		{Period: "2021-03", Key: 2, Value: 30},
		{Period: "2021-04", Key: 2, Value: 40},
	}, hruSw)

	hruSm, err := s.MonthlyMeans(ctx, HRUSoilMoisture)
	require.NoError(t, err)
	assert.Equal(t, []MonthlyMean{
		{Period: "2021-03", Key: 1, Value: 0.2},
		{Period: "2021-03", Key: 2, Value: 0.4},
	}, hruSm)

	subSw, err := s.MonthlyMeans(ctx, SubbasinSwFinal)
	require.NoError(t, err)
	require.Len(t, subSw, 2)
	assert.InDelta(t, 20, subSw[0].Value, 1e-9)

	subSm, err := s.MonthlyMeans(ctx, SubbasinSoilMoisture)
	require.NoError(t, err)
	require.Len(t, subSm, 1)
	assert.InDelta(t, 0.3, subSm[0].Value, 1e-9)

	series := SeriesByKey(hruSw)
	assert.Len(t, series[2], 2)
	require.NoError(t, s.Close())

	// reopening runs no migration twice
	s, err = OpenStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	stored, err = s.DailyValues(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestMonthlyKindString(t *testing.T) {
	assert.Equal(t, "subbasin_soil_moisture_mon", SubbasinSoilMoisture.String())
	assert.Equal(t, "hru_sw_final_mon", HRUSwFinal.String())
}

func TestWriteHRUPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), HRUPointsName)
	require.NoError(t, WriteHRUPoints(path, []HRUPoint{{ID: 7, Lon: 9.1, Lat: 36.2}}))

	points, attrs, err := shapefile.ReadPoints(path)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "7", attrs[0]["HRU"])
}
