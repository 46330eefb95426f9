package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/SvenDH/go-life-engine/engine"
)

type Shape int8

const (
	Ellipse Shape = iota
	Rectangle
	CircleInset
)

func (s Shape) String() string {
	switch s {
	case Ellipse:
		return "ellipse"
	case Rectangle:
		return "rectangle"
	case CircleInset:
		return "circle_inset"
	}
	return "unknown"
}

func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "ellipse":
		return Ellipse, nil
	case "rectangle":
		return Rectangle, nil
	case "circle_inset", "circle-inset":
		return CircleInset, nil
	}
	return Ellipse, fmt.Errorf("unknown shape %q", s)
}

var (
	Black     = color.NRGBA{0, 0, 0, 255}
	LimeGreen = color.NRGBA{50, 205, 50, 255}
	White     = color.NRGBA{255, 255, 255, 255}
)

// Renderer draws boards as raster images, one CellSize square per cell.
type Renderer struct {
	CellSize   int
	Background color.NRGBA
	Foreground color.NRGBA
	Shape      Shape
	// Label draws the generation number in the top left corner.
	Label bool
}

func NewRenderer(cellSize int) *Renderer {
	return &Renderer{
		CellSize:   cellSize,
		Background: Black,
		Foreground: LimeGreen,
		Shape:      Ellipse,
	}
}

func (r *Renderer) Frame(b *engine.Board, gen int) *image.NRGBA {
	cs := r.CellSize
	img := image.NewNRGBA(image.Rect(0, 0, b.Cols*cs, b.Rows*cs))
	draw.Draw(img, img.Bounds(), &image.Uniform{r.Background}, image.Point{}, draw.Src)

	for i := 0; i < b.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			if b.Alive(i, j) {
				r.drawCell(img, j*cs, i*cs)
			}
		}
	}
	if r.Label {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(White),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(2, 12),
		}
		d.DrawString(fmt.Sprintf("gen %d", gen))
	}
	return img
}

func (r *Renderer) drawCell(img *image.NRGBA, x0, y0 int) {
	cs := r.CellSize
	switch r.Shape {
	case Rectangle:
		draw.Draw(img, image.Rect(x0, y0, x0+cs, y0+cs), &image.Uniform{r.Foreground}, image.Point{}, draw.Src)
	case CircleInset:
		pad := int(0.1 * float64(cs))
		r.drawEllipse(img, x0+pad, y0+pad, cs-2*pad)
	default:
		r.drawEllipse(img, x0, y0, cs)
	}
}

func (r *Renderer) drawEllipse(img *image.NRGBA, x0, y0, size int) {
	if size <= 0 {
		return
	}
	radius := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - radius
			dy := float64(y) + 0.5 - radius
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x0+x, y0+y, r.Foreground)
			}
		}
	}
}

// Frames renders a board history. history[k] is labelled generation first+k.
func (r *Renderer) Frames(history []*engine.Board, first int) []*image.NRGBA {
	frames := make([]*image.NRGBA, len(history))
	for k, b := range history {
		frames[k] = r.Frame(b, first+k)
	}
	return frames
}
