package swatplus

import (
	"context"
	"database/sql"
	"fmt"
)

// Project reads the SWAT+ project database. It is opened read only.
type Project struct {
	db *sql.DB
}

func OpenProject(path string) (*Project, error) {
	db, err := openSQLite(path, true)
	if err != nil {
		return nil, err
	}
	return &Project{db: db}, nil
}

func (p *Project) Close() error { return p.db.Close() }

// HRUPoints returns the centroid of every HRU, ordered by id.
func (p *Project) HRUPoints(ctx context.Context) ([]HRUPoint, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, lon, lat FROM hru_con ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hru_con: %w", err)
	}
	defer rows.Close()

	var points []HRUPoint
	for rows.Next() {
		var pt HRUPoint
		if err := rows.Scan(&pt.ID, &pt.Lon, &pt.Lat); err != nil {
			return nil, err
		}
		points = append(points, pt)
	}
	return points, rows.Err()
}

func (p *Project) HRUCount(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hru_con`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count hru_con: %w", err)
	}
	return n, nil
}

// SubbasinRelations maps each HRU to the subbasin of the channel its landscape unit drains to.
func (p *Project) SubbasinRelations(ctx context.Context) ([]SubbasinRelation, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT gis_hrus.id, gis_channels.subbasin
		FROM gis_hrus
		INNER JOIN gis_lsus ON gis_hrus.lsu = gis_lsus.id
		INNER JOIN gis_channels ON gis_lsus.channel = gis_channels.id
		ORDER BY gis_hrus.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query HRU subbasins: %w", err)
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

// HRUSoils returns the soil name of every HRU.
func (p *Project) HRUSoils(ctx context.Context) (map[int]string, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT hru_data_hru.id, soils_sol.name
		FROM hru_data_hru
		INNER JOIN soils_sol ON hru_data_hru.soil_id = soils_sol.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query HRU soils: %w", err)
	}
	defer rows.Close()

	soils := make(map[int]string)
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		soils[id] = name
	}
	return soils, rows.Err()
}

// Output reads the SWAT+ simulation output database.
type Output struct {
	db *sql.DB
}

func OpenOutput(path string) (*Output, error) {
	db, err := openSQLite(path, true)
	if err != nil {
		return nil, err
	}
	return &Output{db: db}, nil
}

func (o *Output) Close() error { return o.db.Close() }

// DailyBalances returns hru_wb_day ordered by date then unit.
func (o *Output) DailyBalances(ctx context.Context) ([]DailyBalance, error) {
	rows, err := o.db.QueryContext(ctx, `
		SELECT yr, mon, day, unit, sw_final, sw_ave, sw_init, et, precip
		FROM hru_wb_day
		ORDER BY yr, mon, day, unit`)
	if err != nil {
		return nil, fmt.Errorf("failed to query hru_wb_day: %w", err)
	}
	defer rows.Close()

	var balances []DailyBalance
	for rows.Next() {
		var b DailyBalance
		if err := rows.Scan(&b.Year, &b.Month, &b.Day, &b.Unit, &b.SwFinal, &b.SwAve, &b.SwInit, &b.ET, &b.Precip); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
