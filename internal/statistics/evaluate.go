package statistics

import (
	"math"
	"sort"

	"github.com/forest-guardian/smap-coverage-cli/internal/swatplus"
)

type HRUResult struct {
	HRU         int     `csv:"HRU"`
	Lon         float64 `csv:"lon"`
	Lat         float64 `csv:"lat"`
	Value       float64 `csv:"Value"`
	Color       string  `csv:"Color"`
	Pairs       int     `csv:"pairs"`
	Soil        string  `csv:"soil"`
	UnknownSoil bool    `csv:"-"`
}

// Pair joins modeled and observed monthly means on period. Periods missing from either side
// are dropped. Output follows the modeled order.
func Pair(modeled, observed []swatplus.MonthlyMean) (obs, mod []float64) {
	byPeriod := make(map[string]float64, len(observed))
	for _, o := range observed {
		byPeriod[o.Period] = o.Value
	}
	for _, m := range modeled {
		if v, ok := byPeriod[m.Period]; ok {
			obs = append(obs, v)
			mod = append(mod, m.Value)
		}
	}
	return obs, mod
}

// Evaluate scores every HRU point. modeled holds hru_sw_final_mon rows and observed holds
// hru_soil_moisture_mon rows. SWAT+ values are corrected with the HRU soil before scoring.
func Evaluate(m Metric, points []swatplus.HRUPoint, modeled, observed []swatplus.MonthlyMean, soils map[int]string) []HRUResult {
	modByHRU := swatplus.SeriesByKey(modeled)
	obsByHRU := swatplus.SeriesByKey(observed)

	results := make([]HRUResult, 0, len(points))
	for _, p := range points {
		res := HRUResult{HRU: p.ID, Lon: p.Lon, Lat: p.Lat, Soil: soils[p.ID], Value: math.NaN()}

		corrected := make([]swatplus.MonthlyMean, 0, len(modByHRU[p.ID]))
		for _, mm := range modByHRU[p.ID] {
			v, ok := CorrectedSoilWater(mm.Value, res.Soil)
			if !ok {
				res.UnknownSoil = true
				break
			}
			corrected = append(corrected, swatplus.MonthlyMean{Period: mm.Period, Key: mm.Key, Value: v})
		}
		if !res.UnknownSoil {
			obs, mod := Pair(corrected, obsByHRU[p.ID])
			res.Pairs = len(obs)
			res.Value = m.Compute(obs, mod)
		}
		res.Color = ColorFor(m, res.Value)
		results = append(results, res)
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].HRU < results[j].HRU })
	return results
}

// Share is the number of HRUs strictly above Limit, and its percentage of all HRUs.
type Share struct {
	Limit   float64
	Count   int
	Percent int
}

type Summary struct {
	Metric  Metric
	Total   int
	Valid   int
	Average float64
	Shares  []Share
}

var shareLimits = map[Metric][]float64{
	NashSutcliffe: {0.60, 0.80},
	RSquared:      {0.40, 0.50},
}

// Summarize averages the non NaN values. Percentages are truncated.
func Summarize(m Metric, results []HRUResult) Summary {
	s := Summary{Metric: m, Total: len(results), Average: math.NaN()}
	for _, limit := range shareLimits[m] {
		s.Shares = append(s.Shares, Share{Limit: limit})
	}

	var sum float64
	for _, r := range results {
		if math.IsNaN(r.Value) {
			continue
		}
		s.Valid++
		sum += r.Value
		for i := range s.Shares {
			if r.Value > s.Shares[i].Limit {
				s.Shares[i].Count++
			}
		}
	}
	if s.Valid > 0 {
		s.Average = sum / float64(s.Valid)
	}
	if s.Total > 0 {
		for i := range s.Shares {
			s.Shares[i].Percent = s.Shares[i].Count * 100 / s.Total
		}
	}
	return s
}
