package swatplus

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MonthlyKind selects one of the monthly mean tables.
type MonthlyKind int

const (
	HRUSwFinal MonthlyKind = iota
	HRUSoilMoisture
	SubbasinSwFinal
	SubbasinSoilMoisture
)

func (k MonthlyKind) table() (table, key, value string) {
	switch k {
	case HRUSoilMoisture:
		return "hru_soil_moisture_mon", "unit", "soil_moisture_1km"
	case SubbasinSwFinal:
		return "subbasin_sw_final_mon", "subbasin", "sw_final"
	case SubbasinSoilMoisture:
		return "subbasin_soil_moisture_mon", "subbasin", "soil_moisture_1km"
	default:
		return "hru_sw_final_mon", "unit", "sw_final"
	}
}

func (k MonthlyKind) String() string {
	t, _, _ := k.table()
	return t
}

// MonthlyMean is one row of a monthly table. Key is an HRU or a subbasin depending on the kind.
type MonthlyMean struct {
	Period string
	Key    int
	Value  float64
}

// Store is the merge database that joins SWAT+ outputs with SMAP samples.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the merge database and applies pending migrations.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := openSQLite(path, false)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	// provider.Close would close db as well.
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to migrate merge database: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ReplaceSubbasinRelations overwrites hru_subbasin_rel.
func (s *Store) ReplaceSubbasinRelations(ctx context.Context, rels []SubbasinRelation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hru_subbasin_rel`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO hru_subbasin_rel (id, subbasin) VALUES (?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rels {
			if _, err := stmt.ExecContext(ctx, r.HRU, r.Subbasin); err != nil {
				return fmt.Errorf("failed to insert relation for HRU %d: %w", r.HRU, err)
			}
		}
		return nil
	})
}

func (s *Store) SubbasinRelations(ctx context.Context) ([]SubbasinRelation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, subbasin FROM hru_subbasin_rel ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []SubbasinRelation
	for rows.Next() {
		var r SubbasinRelation
		if err := rows.Scan(&r.HRU, &r.Subbasin); err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// ReplaceDailyValues overwrites hru_day_values.
func (s *Store) ReplaceDailyValues(ctx context.Context, values []DailyValue) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hru_day_values`); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO hru_day_values
				(swat_date, yr, mon, unit, sw_final, sw_ave, sw_init, et, precip, subbasin, soil_moisture_1km)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, v := range values {
			if _, err := stmt.ExecContext(ctx, v.SwatDate, v.Year, v.Month, v.Unit, v.SwFinal, v.SwAve,
				v.SwInit, v.ET, v.Precip, v.Subbasin, v.SoilMoisture); err != nil {
				return fmt.Errorf("failed to insert %s unit %d: %w", v.SwatDate, v.Unit, err)
			}
		}
		return nil
	})
}

func (s *Store) DailyValues(ctx context.Context) ([]DailyValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT swat_date, yr, mon, unit, sw_final, sw_ave, sw_init, et, precip, subbasin, soil_moisture_1km
		FROM hru_day_values
		ORDER BY swat_date, unit`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []DailyValue
	for rows.Next() {
		var v DailyValue
		if err := rows.Scan(&v.SwatDate, &v.Year, &v.Month, &v.Unit, &v.SwFinal, &v.SwAve, &v.SwInit,
			&v.ET, &v.Precip, &v.Subbasin, &v.SoilMoisture); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Soil moisture of 0 or -9999 means the SMAP raster had no value at the HRU.
var monthlyQueries = []string{
	`DELETE FROM hru_sw_final_mon`,
	`INSERT INTO hru_sw_final_mon (period, unit, sw_final)
		SELECT printf('%d-%02d', yr, mon), unit, AVG(sw_final)
		FROM hru_day_values GROUP BY yr, mon, unit`,
	`DELETE FROM hru_soil_moisture_mon`,
	`INSERT INTO hru_soil_moisture_mon (period, unit, soil_moisture_1km)
		SELECT printf('%d-%02d', yr, mon), unit, AVG(soil_moisture_1km)
		FROM hru_day_values
		WHERE soil_moisture_1km != 0 AND soil_moisture_1km != -9999
		GROUP BY yr, mon, unit`,
	`DELETE FROM subbasin_sw_final_mon`,
	`INSERT INTO subbasin_sw_final_mon (period, subbasin, sw_final)
		SELECT printf('%d-%02d', yr, mon), subbasin, AVG(sw_final)
		FROM hru_day_values GROUP BY yr, mon, subbasin`,
	`DELETE FROM subbasin_soil_moisture_mon`,
	`INSERT INTO subbasin_soil_moisture_mon (period, subbasin, soil_moisture_1km)
		SELECT printf('%d-%02d', yr, mon), subbasin, AVG(soil_moisture_1km)
		FROM hru_day_values
		WHERE soil_moisture_1km != 0 AND soil_moisture_1km != -9999
		GROUP BY yr, mon, subbasin`,
}

// RefreshMonthlyMeans rebuilds the four monthly tables from hru_day_values.
func (s *Store) RefreshMonthlyMeans(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range monthlyQueries {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("failed to refresh monthly means: %w", err)
			}
		}
		return nil
	})
}

// MonthlyMeans returns a monthly table ordered by key then period.
func (s *Store) MonthlyMeans(ctx context.Context, kind MonthlyKind) ([]MonthlyMean, error) {
	table, key, value := kind.table()
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT period, %[2]s, %[3]s FROM %[1]s ORDER BY %[2]s, period`, table, key, value))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var means []MonthlyMean
	for rows.Next() {
		var m MonthlyMean
		if err := rows.Scan(&m.Period, &m.Key, &m.Value); err != nil {
			return nil, err
		}
		means = append(means, m)
	}
	return means, rows.Err()
}

// SeriesByKey groups monthly means by HRU or subbasin, keeping period order.
func SeriesByKey(means []MonthlyMean) map[int][]MonthlyMean {
	out := make(map[int][]MonthlyMean)
	for _, m := range means {
		out[m.Key] = append(out[m.Key], m)
	}
	return out
}
