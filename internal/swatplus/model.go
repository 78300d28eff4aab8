// Package swatplus reads SWAT+ project and output databases and keeps the merged SMAP values.
package swatplus

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

type HRUPoint struct {
	ID  int
	Lon float64
	Lat float64
}

type SubbasinRelation struct {
	HRU      int
	Subbasin int
}

// DailyBalance is one row of hru_wb_day.
type DailyBalance struct {
	Year    int
	Month   int
	Day     int
	Unit    int
	SwFinal float64
	SwAve   float64
	SwInit  float64
	ET      float64
	Precip  float64
}

func (b DailyBalance) Date() string { return SwatDate(b.Year, b.Month, b.Day) }

// DailyValue is a daily balance joined with its subbasin and the SMAP value sampled at the HRU.
type DailyValue struct {
	SwatDate     string
	Year         int
	Month        int
	Unit         int
	SwFinal      float64
	SwAve        float64
	SwInit       float64
	ET           float64
	Precip       float64
	Subbasin     int
	SoilMoisture float64
}

// SwatDate formats a SWAT+ date as YYYY-MM-DD.
func SwatDate(year, month, day int) string {
	return fmt.Sprintf("%d-%02d-%02d", year, month, day)
}

func openSQLite(path string, readOnly bool) (*sql.DB, error) {
	dsn := "file:" + path
	if readOnly {
		dsn += "?mode=ro"
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return db, nil
}
