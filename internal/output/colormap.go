// Package output renders the charts, raster grids and videos produced by the pipeline.
package output

import (
	"image/color"
	"math"
)

// blues is the sequential light to dark blue ramp.
var blues = []color.RGBA{
	{0xf7, 0xfb, 0xff, 0xff},
	{0xde, 0xeb, 0xf7, 0xff},
	{0xc6, 0xdb, 0xef, 0xff},
	{0x9e, 0xca, 0xe1, 0xff},
	{0x6b, 0xae, 0xd6, 0xff},
	{0x42, 0x92, 0xc6, 0xff},
	{0x21, 0x71, 0xb5, 0xff},
	{0x08, 0x51, 0x9c, 0xff},
	{0x08, 0x30, 0x6b, 0xff},
}

// ColorScale maps values in [Min, Max] onto the blue ramp. Values outside are clamped.
type ColorScale struct {
	Min float64
	Max float64
}

// SoilMoistureScale is the normalization used for the monthly mean maps.
var SoilMoistureScale = ColorScale{Min: 0, Max: 0.5}

// Normalize returns v in [0, 1].
func (s ColorScale) Normalize(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	t := (v - s.Min) / (s.Max - s.Min)
	return math.Max(0, math.Min(1, t))
}

// Color returns transparent for NaN.
func (s ColorScale) Color(v float64) color.RGBA {
	if math.IsNaN(v) {
		return color.RGBA{}
	}
	return Blues(s.Normalize(v))
}

// Blues interpolates the ramp at t in [0, 1].
func Blues(t float64) color.RGBA {
	pos := t * float64(len(blues)-1)
	i := int(math.Floor(pos))
	if i >= len(blues)-1 {
		return blues[len(blues)-1]
	}
	if i < 0 {
		return blues[0]
	}
	f := pos - float64(i)
	a, b := blues[i], blues[i+1]
	lerp := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f)) }
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 0xff}
}
