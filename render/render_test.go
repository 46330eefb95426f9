package render

import (
	"bytes"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/SvenDH/go-life-engine/engine"
)

func testBoard(t *testing.T) *engine.Board {
	b, err := engine.BoardFromRows([][]bool{
		{false, false, false},
		{false, true, false},
		{false, false, true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestParseShape(t *testing.T) {
	for _, s := range []Shape{Ellipse, Rectangle, CircleInset} {
		got, err := ParseShape(s.String())
		if err != nil || got != s {
			t.Fatalf("expected %v, got %v (%v)", s, got, err)
		}
	}
	if _, err := ParseShape("hexagon"); err == nil {
		t.Fatal("expected error for unknown shape")
	}
}

func TestFrame(t *testing.T) {
	b := testBoard(t)
	tests := []struct {
		shape  Shape
		corner bool
	}{
		{Rectangle, true},
		{Ellipse, false},
		{CircleInset, false},
	}
	for _, tt := range tests {
		r := NewRenderer(10)
		r.Shape = tt.shape
		img := r.Frame(b, 1)
		if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 30 {
			t.Fatalf("%v: unexpected size %v", tt.shape, img.Bounds())
		}
		if img.NRGBAAt(15, 15) != LimeGreen {
			t.Fatalf("%v: live cell centre not painted", tt.shape)
		}
		if img.NRGBAAt(5, 5) != Black {
			t.Fatalf("%v: dead cell painted", tt.shape)
		}
		if got := img.NRGBAAt(10, 10) == LimeGreen; got != tt.corner {
			t.Fatalf("%v: corner painted = %v", tt.shape, got)
		}
	}
}

func TestFrameLabel(t *testing.T) {
	b := engine.NewBoard(5, 10)
	r := NewRenderer(10)
	r.Label = true
	img := r.Frame(b, 42)
	lit := 0
	for y := 0; y < 14; y++ {
		for x := 0; x < 60; x++ {
			if img.NRGBAAt(x, y) != Black {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatal("expected label pixels")
	}
}

func TestWriteGIF(t *testing.T) {
	history := engine.PlayClassic(testBoard(t), 3)
	r := NewRenderer(4)
	frames := r.Frames(history, 0)
	var buf bytes.Buffer
	if err := r.WriteGIF(&buf, frames, 30); err != nil {
		t.Fatal(err)
	}
	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 4 || anim.Delay[0] != 30 {
		t.Fatalf("expected 4 frames of 30, got %d", len(anim.Image))
	}
	if err := r.WriteGIF(&buf, nil, 30); err != ErrNoFrames {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}
}

func TestWriteMJPEG(t *testing.T) {
	r := NewRenderer(8)
	frames := r.Frames([]*engine.Board{testBoard(t), testBoard(t)}, 1)
	path := filepath.Join(t.TempDir(), "run.avi")
	if err := WriteMJPEG(path, frames, 5); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("empty video")
	}
}

func TestFieldImage(t *testing.T) {
	f := engine.NewField(2, 3, 0)
	f.Set(0, 0, 8)
	img := FieldImage(f, 0, 8, 4)
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	hot := img.RGBAAt(1, 1)
	cold := img.RGBAAt(10, 6)
	if hot.R != 255 || hot.B != 0 || cold.R != 0 || cold.B != 255 {
		t.Fatalf("unexpected colours %v %v", hot, cold)
	}
}

func TestPopulationChart(t *testing.T) {
	var buf bytes.Buffer
	if err := PopulationChart(&buf, []int{5, 7, 7, 6, 3}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatal("expected PNG output")
	}
	if err := PopulationChart(&buf, []int{1}); err == nil {
		t.Fatal("expected error for a single generation")
	}
}
