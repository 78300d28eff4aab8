package swatplus

// SampleKey identifies the SMAP sample of one HRU on one day.
type SampleKey struct {
	Date string
	Unit int
}

// JoinDailyValues attaches the subbasin and SMAP sample to every daily balance. Balances whose
// HRU has no subbasin are dropped. A missing sample is stored as 0.
func JoinDailyValues(balances []DailyBalance, rels []SubbasinRelation, samples map[SampleKey]float64) []DailyValue {
	subbasins := make(map[int]int, len(rels))
	for _, r := range rels {
		subbasins[r.HRU] = r.Subbasin
	}

	values := make([]DailyValue, 0, len(balances))
	for _, b := range balances {
		sub, ok := subbasins[b.Unit]
		if !ok {
			continue
		}
		date := b.Date()
		values = append(values, DailyValue{
			SwatDate:     date,
			Year:         b.Year,
			Month:        b.Month,
			Unit:         b.Unit,
			SwFinal:      b.SwFinal,
			SwAve:        b.SwAve,
			SwInit:       b.SwInit,
			ET:           b.ET,
			Precip:       b.Precip,
			Subbasin:     sub,
			SoilMoisture: samples[SampleKey{Date: date, Unit: b.Unit}],
		})
	}
	return values
}

// Dates returns the distinct dates of the balances in order of appearance.
func Dates(balances []DailyBalance) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, b := range balances {
		d := b.Date()
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	return dates
}
