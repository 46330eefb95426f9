package viewer

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/render"
)

// Viewer steps a simulation live in a window. Space pauses, R restarts with
// the next seed and Esc quits.
type Viewer struct {
	// Every is the number of ticks between generations.
	Every     int
	ShowDebug bool

	initial  *engine.Board
	params   engine.Params
	sim      *engine.Simulation
	renderer *render.Renderer
	frame    *ebiten.Image
	paused   bool
	ticks    int
}

func New(initial *engine.Board, p engine.Params, renderer *render.Renderer) (*Viewer, error) {
	p.NoHistory = true
	v := &Viewer{
		Every:     6,
		ShowDebug: true,
		initial:   initial,
		params:    p,
		renderer:  renderer,
	}
	if err := v.restart(p.Seed); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Viewer) restart(seed uint64) error {
	v.params.Seed = seed
	sim, err := engine.NewSimulation(v.initial, v.params)
	if err != nil {
		return err
	}
	v.sim = sim
	v.ticks = 0
	return nil
}

func (v *Viewer) handleKey(key ebiten.Key) error {
	switch key {
	case ebiten.KeyEscape:
		return ebiten.Termination
	case ebiten.KeySpace:
		v.paused = !v.paused
	case ebiten.KeyR:
		return v.restart(v.params.Seed + 1)
	}
	return nil
}

func (v *Viewer) tick() {
	if v.paused || v.sim.Done() {
		return
	}
	v.ticks++
	if v.Every > 1 && v.ticks%v.Every != 0 {
		return
	}
	v.sim.Step()
}

func (v *Viewer) Update() error {
	for _, key := range []ebiten.Key{ebiten.KeyEscape, ebiten.KeySpace, ebiten.KeyR} {
		if inpututil.IsKeyJustPressed(key) {
			if err := v.handleKey(key); err != nil {
				return err
			}
		}
	}
	v.tick()
	return nil
}

func (v *Viewer) status() string {
	stats := v.sim.Current().Stats()
	state := "running"
	switch {
	case v.paused:
		state = "paused"
	case v.sim.Done():
		state = "done"
	}
	return fmt.Sprintf("gen %d  pop %d  seed %d  %s\nlonely %.2f born %.2f crowded %.2f damage %.2f",
		v.sim.Generation(), stats.Population, v.params.Seed, state,
		stats.MeanLonely, stats.MeanBorn, stats.MeanCrowded, stats.MeanDamage)
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	img := v.renderer.Frame(v.sim.Current().Board, v.sim.Generation())
	if v.frame == nil || v.frame.Bounds() != img.Bounds() {
		v.frame = ebiten.NewImage(img.Bounds().Dx(), img.Bounds().Dy())
	}
	// frames are opaque so straight and premultiplied alpha agree
	v.frame.WritePixels(img.Pix)
	screen.DrawImage(v.frame, nil)
	if v.ShowDebug {
		ebitenutil.DebugPrint(screen, v.status())
	}
}

func (v *Viewer) Layout(outsideW, outsideH int) (int, int) {
	b := v.initial
	return b.Cols * v.renderer.CellSize, b.Rows * v.renderer.CellSize
}

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run(title string) error {
	w, h := v.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	err := ebiten.RunGame(v)
	if err == ebiten.Termination {
		return nil
	}
	return err
}
