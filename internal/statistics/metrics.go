// Package statistics scores the agreement between SWAT+ soil water and SMAP soil moisture per HRU.
package statistics

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

type Metric int

const (
	Pearson Metric = iota
	NashSutcliffe
	RSquared
)

var metricNames = map[Metric]string{
	Pearson:       "pearson_corr",
	NashSutcliffe: "nash_sutcliffe_efficiency",
	RSquared:      "r2",
}

// String is the name used in output files, e.g. hru_r2.shp.
func (m Metric) String() string { return metricNames[m] }

func (m Metric) Label() string {
	switch m {
	case NashSutcliffe:
		return "NSE"
	case RSquared:
		return "r2"
	default:
		return "Pearson correlation coefficient"
	}
}

// ParseMetric accepts the file name of a metric or a short alias (pearson, nse, r2).
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "pearson", "pearson_corr":
		return Pearson, nil
	case "nse", "nash_sutcliffe_efficiency":
		return NashSutcliffe, nil
	case "r2", "rsquared":
		return RSquared, nil
	}
	return 0, fmt.Errorf("unknown metric %q", s)
}

func (m Metric) Compute(observed, modeled []float64) float64 {
	switch m {
	case NashSutcliffe:
		return NSE(observed, modeled)
	case RSquared:
		return R2(observed, modeled)
	default:
		return PearsonCorrelation(observed, modeled)
	}
}

func usable(x, y []float64) bool {
	return len(x) >= 2 && len(x) == len(y)
}

// PearsonCorrelation is NaN when there are fewer than two pairs or a series is constant.
func PearsonCorrelation(x, y []float64) float64 {
	if !usable(x, y) || stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

func R2(observed, modeled []float64) float64 {
	r := PearsonCorrelation(observed, modeled)
	return r * r
}

// NSE is the Nash-Sutcliffe efficiency of modeled against observed.
func NSE(observed, modeled []float64) float64 {
	if !usable(observed, modeled) {
		return math.NaN()
	}
	mean := stat.Mean(observed, nil)
	var num, den float64
	for i := range observed {
		d := observed[i] - modeled[i]
		num += d * d
		v := observed[i] - mean
		den += v * v
	}
	if den == 0 {
		return math.NaN()
	}
	return 1 - num/den
}

var soilCorrections = map[string]float64{
	"S-700": 0.1674,
	"S-701": 0.00716,
	"S-702": 0.0816,
	"S-703": 0.07672,
	"S-705": 0.109772,
	"S-706": 0.1528096,
	"S-708": 0.145,
	"S-709": 0.206856,
	"S-711": 0.07672,
	"S-714": 0.07672,
}

// SoilWaterDepth converts sw_final (mm) to a volumetric fraction over the top 150 mm.
const SoilWaterDepth = 150.0

// CorrectedSoilWater returns false for a soil missing from the correction table.
func CorrectedSoilWater(swFinal float64, soil string) (float64, bool) {
	c, ok := soilCorrections[soil]
	if !ok {
		return math.NaN(), false
	}
	return swFinal/SoilWaterDepth + c, true
}

// Palette runs from dark green (poor agreement) to light green.
var Palette = [6]string{"#032808", "#065712", "#097e1b", "#0ca223", "#0fc92b", "#12ed36"}

var thresholds = map[Metric][5]float64{
	Pearson:       {0.40, 0.45, 0.50, 0.55, 0.65},
	NashSutcliffe: {0.40, 0.45, 0.50, 0.55, 0.65},
	RSquared:      {0.50, 0.525, 0.55, 0.575, 0.60},
}

// ColorFor classes a value with the metric thresholds. NaN gets the darkest class.
func ColorFor(m Metric, v float64) string {
	if math.IsNaN(v) {
		return Palette[0]
	}
	for i, limit := range thresholds[m] {
		if v < limit {
			return Palette[i]
		}
	}
	return Palette[len(Palette)-1]
}
