package output

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/fogleman/gg"
)

// Series is one line of a chart. Labels and Values have the same length.
type Series struct {
	Name   string
	Labels []string
	Values []float64
	Color  color.Color
}

var (
	SwFinalColor      = color.RGBA{0xff, 0x00, 0x00, 0xff}
	SoilMoistureColor = color.RGBA{0x00, 0x00, 0xff, 0xff}
)

const (
	chartWidth  = 960
	chartHeight = 540
	chartMargin = 70
	maxXTicks   = 8
)

func valueRange(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 1
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

func mergeLabels(series ...Series) []string {
	seen := map[string]bool{}
	var labels []string
	for _, s := range series {
		for _, l := range s.Labels {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Strings(labels)
	return labels
}

// DrawSeriesChart draws left against the left axis and right against the right axis, on a
// shared x axis made of the sorted labels of both series, and saves a PNG.
func DrawSeriesChart(path, title string, left, right Series) error {
	if len(left.Labels) != len(left.Values) || len(right.Labels) != len(right.Values) {
		return fmt.Errorf("series labels and values differ in length")
	}
	labels := mergeLabels(left, right)
	if len(labels) == 0 {
		return fmt.Errorf("no data to plot")
	}
	xIndex := make(map[string]int, len(labels))
	for i, l := range labels {
		xIndex[l] = i
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	x0, x1 := float64(chartMargin), float64(chartWidth-chartMargin)
	y0, y1 := float64(chartHeight-chartMargin), float64(chartMargin)
	xAt := func(i int) float64 {
		if len(labels) == 1 {
			return (x0 + x1) / 2
		}
		return x0 + float64(i)*(x1-x0)/float64(len(labels)-1)
	}

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x0, y1, x1-x0, y0-y1)
	dc.Stroke()
	dc.DrawStringAnchored(title, chartWidth/2, chartMargin/2, 0.5, 0.5)

	step := int(math.Ceil(float64(len(labels)) / maxXTicks))
	for i := 0; i < len(labels); i += step {
		x := xAt(i)
		dc.DrawLine(x, y0, x, y0+5)
		dc.Stroke()
		dc.DrawStringAnchored(labels[i], x, y0+18, 0.5, 0.5)
	}

	drawAxis := func(s Series, x float64, anchor float64, tickDir float64) {
		lo, hi := valueRange(s.Values)
		yAt := func(v float64) float64 { return y0 - (v-lo)/(hi-lo)*(y0-y1) }

		dc.SetColor(s.Color)
		for k := 0; k <= 4; k++ {
			v := lo + float64(k)*(hi-lo)/4
			y := yAt(v)
			dc.DrawLine(x, y, x+tickDir*5, y)
			dc.Stroke()
			dc.DrawStringAnchored(fmt.Sprintf("%.3g", v), x+tickDir*8, y, anchor, 0.5)
		}

		dc.SetLineWidth(3)
		started := false
		for i, l := range s.Labels {
			v := s.Values[i]
			if math.IsNaN(v) {
				started = false
				continue
			}
			px, py := xAt(xIndex[l]), yAt(v)
			if !started {
				dc.MoveTo(px, py)
				started = true
				continue
			}
			dc.LineTo(px, py)
		}
		dc.Stroke()
		dc.SetLineWidth(1)
	}
	drawAxis(left, x0, 1, -1)
	drawAxis(right, x1, 0, 1)

	// legend
	for i, s := range []Series{left, right} {
		y := y1 + 15 + float64(i)*18
		dc.SetColor(s.Color)
		dc.SetLineWidth(3)
		dc.DrawLine(x0+10, y, x0+35, y)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(s.Name, x0+42, y, 0, 0.5)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return dc.SavePNG(path)
}
