package server

import (
	"fmt"
	"strings"

	"github.com/SvenDH/go-life-engine/board"
	"github.com/SvenDH/go-life-engine/engine"
)

const (
	MaxGenerations = 100000
	MaxCells       = 1 << 20
	maxInterval    = 5000
)

// RunRequest describes a simulation to start, either from an RLE pattern or as
// a random soup of Rows x Cols cells seeded by Params.Seed.
type RunRequest struct {
	Pattern string        `json:"pattern,omitempty"`
	Rows    int           `json:"rows,omitempty"`
	Cols    int           `json:"cols,omitempty"`
	Density float64       `json:"density,omitempty"`
	Params  engine.Params `json:"params"`
	// Interval is the pause between streamed generations in milliseconds.
	Interval int `json:"interval_ms,omitempty"`
}

func newRunRequest() RunRequest {
	return RunRequest{Density: 0.3, Params: engine.DefaultParams()}
}

func (req *RunRequest) Board() (*engine.Board, error) {
	if req.Pattern != "" {
		return board.ReadRLELimit(strings.NewReader(req.Pattern), MaxCells)
	}
	if req.Rows < 3 || req.Cols < 3 {
		return nil, fmt.Errorf("%w: a pattern or at least 3x3 rows and cols is required", engine.ErrInvalidBoard)
	}
	if req.Rows > MaxCells/req.Cols {
		return nil, fmt.Errorf("%w: %dx%d board exceeds %d cells", engine.ErrInvalidBoard, req.Rows, req.Cols, MaxCells)
	}
	return board.Random(req.Rows, req.Cols, req.Density, req.Params.Seed), nil
}

func (req *RunRequest) Simulation() (*engine.Simulation, error) {
	if req.Params.Generations > MaxGenerations {
		return nil, fmt.Errorf("%w: at most %d generations per run", engine.ErrInvalidParameter, MaxGenerations)
	}
	if req.Interval < 0 || req.Interval > maxInterval {
		return nil, fmt.Errorf("%w: interval must be within [0,%d] ms", engine.ErrInvalidParameter, maxInterval)
	}
	b, err := req.Board()
	if err != nil {
		return nil, err
	}
	if b.Rows > MaxCells/b.Cols {
		return nil, fmt.Errorf("%w: pattern exceeds %d cells", engine.ErrInvalidBoard, MaxCells)
	}
	p := req.Params
	p.NoHistory = true
	return engine.NewSimulation(b, p)
}
