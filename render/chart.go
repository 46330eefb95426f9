package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/SvenDH/go-life-engine/engine"
)

// FieldImage paints a per-cell field as a heat map, blue at lo and red at hi,
// scaled up by scale pixels per cell.
func FieldImage(f *engine.Field, lo, hi float64, scale int) *image.RGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Cols, f.Rows))
	span := hi - lo
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			v := 0.0
			if span > 0 {
				v = math.Min(1, math.Max(0, (f.At(r, c)-lo)/span))
			}
			img.SetNRGBA(c, r, color.NRGBA{
				R: uint8(255 * v),
				G: uint8(255 * (1 - math.Abs(2*v-1)) / 2),
				B: uint8(255 * (1 - v)),
				A: 255,
			})
		}
	}
	if scale < 1 {
		scale = 1
	}
	return transform.Resize(img, f.Cols*scale, f.Rows*scale, transform.NearestNeighbor)
}

// PopulationChart renders the population trajectory as a PNG line chart.
func PopulationChart(w io.Writer, population []int) error {
	if len(population) < 2 {
		return fmt.Errorf("need at least 2 generations to chart, got %d", len(population))
	}
	xs := make([]float64, len(population))
	ys := make([]float64, len(population))
	top := 1.0
	for k, p := range population {
		xs[k] = float64(k + 1)
		ys[k] = float64(p)
		top = math.Max(top, float64(p))
	}

	graph := chart.Chart{
		Width:  800,
		Height: 300,
		XAxis: chart.XAxis{
			Name:  "generation",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "population",
			Style: chart.Style{FontSize: 10.0},
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.05},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "population",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 2.0},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}
