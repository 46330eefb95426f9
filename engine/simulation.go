package engine

import (
	"context"
	"slices"
)

// Generation describes one computed step of a simulation.
type Generation struct {
	Index      int    `json:"generation"`
	Board      *Board `json:"-"`
	Population int    `json:"population"`
	Streak     int    `json:"streak"`
	Counts
}

type GenerationHandler func(*Generation)

// Result is the record returned when a simulation terminates. Population[k],
// History[k] and Counts[k] all describe generation k+1. History is empty when
// the run was made with Params.NoHistory.
type Result struct {
	Generations      int      `json:"generations"`
	Population       []int    `json:"population"`
	Counts           []Counts `json:"counts,omitempty"`
	History          []*Board `json:"-"`
	Final            *State   `json:"-"`
	Stats            Stats    `json:"stats"`
	SteadyState      bool     `json:"steady_state"`
	SteadyGeneration int      `json:"steady_generation,omitempty"`
}

// Simulation owns the generation loop of one run. It is not safe for
// concurrent use.
type Simulation struct {
	Params Params

	current    *State
	gen        int
	steady     *SteadyState
	reached    bool
	done       bool
	population []int
	history    []*Board
	counts     []Counts
	handlers   []GenerationHandler
}

// NewSimulation validates the board and parameters and prepares generation 0.
// For the evolvable variants the border of the initial board is cleared.
func NewSimulation(initial *Board, p Params) (*Simulation, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := initial.validate(); err != nil {
		return nil, err
	}
	b := initial.Clone()
	if p.Variant != Classic {
		clearBorder(b)
	}
	return &Simulation{
		Params:  p,
		current: NewState(b, p.Initial),
		steady:  NewSteadyState(p.SteadyWindow),
	}, nil
}

func clearBorder(b *Board) {
	for c := 0; c < b.Cols; c++ {
		b.Set(0, c, false)
		b.Set(b.Rows-1, c, false)
	}
	for r := 0; r < b.Rows; r++ {
		b.Set(r, 0, false)
		b.Set(r, b.Cols-1, false)
	}
}

// On registers a handler called after every generation.
func (s *Simulation) On(handler GenerationHandler) {
	s.handlers = append(s.handlers, handler)
}

func (s *Simulation) emit(g *Generation) {
	for _, f := range s.handlers {
		f(g)
	}
}

func (s *Simulation) Current() *State { return s.current }

func (s *Simulation) Generation() int { return s.gen }

func (s *Simulation) Done() bool { return s.done }

// Step computes the next generation. It returns false once the generation
// budget is spent or a steady state has been reached.
func (s *Simulation) Step() (*Generation, bool) {
	if s.done {
		return nil, false
	}
	s.gen++
	next, cnt := Step(s.Params, s.current, s.gen)
	stop := s.steady.Observe(s.current.Board, next.Board)
	s.current = next

	g := &Generation{
		Index:      s.gen,
		Board:      next.Board,
		Population: next.Board.Population(),
		Streak:     s.steady.Streak(),
		Counts:     cnt,
	}
	s.population = append(s.population, g.Population)
	if !s.Params.NoHistory {
		s.history = append(s.history, next.Board)
	}
	s.counts = append(s.counts, cnt)

	if stop {
		s.reached = true
		s.done = true
	} else if s.gen >= s.Params.Generations {
		s.done = true
	}
	s.emit(g)
	return g, true
}

// Run steps until the simulation terminates. ctx is checked between generations.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, ok := s.Step(); !ok {
			return s.Result(), nil
		}
	}
}

// Result snapshots the run so far. When a steady state was reached
// SteadyGeneration is the generation whose board the streak kept repeating.
func (s *Simulation) Result() *Result {
	r := &Result{
		Generations: s.gen,
		Population:  slices.Clone(s.population),
		Counts:      slices.Clone(s.counts),
		History:     slices.Clone(s.history),
		Final:       s.current,
		Stats:       s.current.Stats(),
		SteadyState: s.reached,
	}
	if s.reached {
		r.SteadyGeneration = s.gen - s.Params.SteadyWindow
	}
	return r
}

// Run simulates board under p until the generation budget is spent or the
// board stays unchanged for p.SteadyWindow generations.
func Run(ctx context.Context, board *Board, p Params) (*Result, error) {
	sim, err := NewSimulation(board, p)
	if err != nil {
		return nil, err
	}
	return sim.Run(ctx)
}
