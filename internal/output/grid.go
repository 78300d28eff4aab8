package output

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/smap-coverage-cli/internal/raster"
)

const (
	cellSize     = 110
	titleHeight  = 16
	legendWidth  = 150
	gridPadding  = 10
	LegendLabel  = "Humidité du sol (vol %)"
	legendHeight = 360
)

// LegendScale and LegendTicks describe the colour bar drawn next to the grid.
var (
	LegendScale = ColorScale{Min: 3.12, Max: 28.72}
	LegendTicks = []float64{4, 7, 10, 13, 16, 19, 22, 25, 28}
)

// RenderGrid draws one pixel per raster cell. Invalid cells are transparent.
func RenderGrid(g *raster.Grid, scale ColorScale) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			v := g.At(col, row)
			if !g.Valid(v) {
				v = math.NaN()
			}
			img.SetRGBA(col, row, scale.Color(v))
		}
	}
	return img
}

// Title is the raster file name without extension.
func Title(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DrawRasterGrid lays out up to rows*cols rasters in a grid, each titled with its file name,
// and a vertical colour bar on the right. Extra cells stay blank.
func DrawRasterGrid(paths []string, rows, cols int, out string, scale ColorScale) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("invalid grid %dx%d", rows, cols)
	}
	width := cols*cellSize + 2*gridPadding + legendWidth
	height := rows*(cellSize+titleHeight) + 2*gridPadding
	if height < legendHeight+2*gridPadding {
		height = legendHeight + 2*gridPadding
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, path := range paths {
		if i >= rows*cols {
			break
		}
		g, err := raster.LoadGrid(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		x := float64(gridPadding + (i%cols)*cellSize)
		y := float64(gridPadding + (i/cols)*(cellSize+titleHeight))

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(Title(path), x+cellSize/2, y+titleHeight/2, 0.5, 0.5)

		img := RenderGrid(g, scale)
		s := math.Min(float64(cellSize-4)/float64(g.Width), float64(cellSize-4)/float64(g.Height))
		dc.Push()
		dc.Translate(x+2, y+titleHeight+2)
		dc.Scale(s, s)
		dc.DrawImage(img, 0, 0)
		dc.Pop()
	}

	drawLegend(dc, float64(gridPadding+cols*cellSize+40), float64(gridPadding+20))

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	return dc.SavePNG(out)
}

func drawLegend(dc *gg.Context, x, y float64) {
	const barWidth, barHeight = 18.0, legendHeight - 40.0
	for i := 0; i < int(barHeight); i++ {
		t := 1 - float64(i)/barHeight
		dc.SetColor(Blues(t))
		dc.DrawRectangle(x, y+float64(i), barWidth, 1)
		dc.Fill()
	}
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, barWidth, barHeight)
	dc.Stroke()

	for _, tick := range LegendTicks {
		ty := y + (1-LegendScale.Normalize(tick))*barHeight
		dc.DrawLine(x+barWidth, ty, x+barWidth+4, ty)
		dc.Stroke()
		dc.DrawStringAnchored(fmt.Sprintf("%g", tick), x+barWidth+7, ty, 0, 0.5)
	}

	lx, ly := x+barWidth+45, y+barHeight/2
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), lx, ly)
	dc.DrawStringAnchored(LegendLabel, lx, ly, 0.5, 0.5)
	dc.Pop()
}

// DrawRaster renders a single raster with its title, used for video frames.
func DrawRaster(path, out string, scale ColorScale) error {
	return DrawRasterGrid([]string{path}, 1, 1, out, scale)
}
