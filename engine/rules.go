package engine

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Trait names one of the three heritable thresholds.
type Trait int8

const (
	Lonely Trait = iota
	Born
	Crowded
)

func (t Trait) String() string {
	switch t {
	case Lonely:
		return "lonely"
	case Born:
		return "born"
	case Crowded:
		return "crowded"
	}
	return "unknown"
}

func roundThreshold(v float64) int {
	return int(math.RoundToEven(v))
}

func clip(v float64) float64 {
	return math.Min(MaxThreshold, math.Max(MinThreshold, v))
}

// Mutator perturbs inherited thresholds at birth.
type Mutator struct {
	Rate      float64
	Magnitude float64
	Integer   bool
}

// Mutate rolls once against Rate. On a hit it picks one trait uniformly, adds
// Magnitude*N(0,1) to it (rounded when Integer is set) and clips the result to
// [0,8]. The other two traits are returned untouched.
func (m Mutator) Mutate(t Thresholds, rng *rand.Rand) (Thresholds, Trait, bool) {
	if !(rng.Float64() < m.Rate) {
		return t, 0, false
	}
	trait := Trait(rng.IntN(3))
	delta := m.Magnitude * rng.NormFloat64()
	if m.Integer {
		delta = math.Round(delta)
	}
	switch trait {
	case Lonely:
		t.Lonely = clip(t.Lonely + delta)
	case Born:
		t.Born = clip(t.Born + delta)
	case Crowded:
		t.Crowded = clip(t.Crowded + delta)
	}
	return t, trait, true
}

// Irradiate advances the damage of a cell that was alive in the previous
// generation and reports whether radiation kills it in generation gen.
func (r RadiationParams) Irradiate(gen int, damage, born float64) (float64, bool) {
	if gen%r.Gap == 0 {
		damage += r.Strength
	}
	damage = math.Max(0, damage-born/20)
	return damage, (gen+r.Gap/2)%r.Gap == 0 && damage > 0
}

// Counts tallies the events of one generation.
type Counts struct {
	Births          int `json:"births"`
	Deaths          int `json:"deaths"`
	RadiationDeaths int `json:"radiation_deaths"`
	Mutations       int `json:"mutations"`
}

func (c *Counts) add(o Counts) {
	c.Births += o.Births
	c.Deaths += o.Deaths
	c.RadiationDeaths += o.RadiationDeaths
	c.Mutations += o.Mutations
}

// rowRNG returns the random stream of one row in one generation. Streams are
// independent of the worker layout so runs with the same seed always agree.
func rowRNG(seed uint64, gen, row int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(gen)<<32|uint64(uint32(row))))
}

// Step computes generation gen (numbered from 1) from prev. prev is only read;
// the returned state shares no mutable data with it.
func Step(p Params, prev *State, gen int) (*State, Counts) {
	if p.Variant == Classic {
		return classicStep(prev)
	}
	b := prev.Board
	next := &State{
		Board:   NewBoard(b.Rows, b.Cols),
		Lonely:  prev.Lonely.Clone(),
		Born:    prev.Born.Clone(),
		Crowded: prev.Crowded.Clone(),
		Damage:  prev.Damage.Clone(),
	}

	first, last := 1, b.Rows-2
	rows := last - first + 1
	workers := p.Workers
	if workers > rows {
		workers = rows
	}
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		var total Counts
		buf := make([]int, 0, 8)
		for r := first; r <= last; r++ {
			total.add(evolveRow(p, prev, next, gen, r, buf))
		}
		return next, total
	}

	chunkSize := (rows + workers - 1) / workers
	partial := make([]Counts, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			start := first + workerID*chunkSize
			end := start + chunkSize
			if end > last+1 {
				end = last + 1
			}
			buf := make([]int, 0, 8)
			for r := start; r < end; r++ {
				partial[workerID].add(evolveRow(p, prev, next, gen, r, buf))
			}
		}(w)
	}
	wg.Wait()

	var total Counts
	for _, c := range partial {
		total.add(c)
	}
	return next, total
}

// evolveRow updates the interior cells of row r. Only next's cells in row r are
// written.
func evolveRow(p Params, prev, next *State, gen, r int, buf []int) Counts {
	var cnt Counts
	b := prev.Board
	rng := rowRNG(p.Seed, gen, r)
	mut := Mutator{Rate: p.MutationRate, Magnitude: p.MutationMagnitude, Integer: p.IntegerMutation}

	for c := 1; c < b.Cols-1; c++ {
		i := r*b.Cols + c
		buf = b.liveNeighbors(r, c, buf)
		n := len(buf)

		if b.Cells[i] == 1 {
			t := prev.thresholds(i)
			dies := n < roundThreshold(t.Lonely) || n > roundThreshold(t.Crowded)
			if p.Variant == Radiation {
				damage, killed := p.Radiation.Irradiate(gen, prev.Damage.Values[i], t.Born)
				next.Damage.Values[i] = damage
				if killed && !dies {
					cnt.RadiationDeaths++
					dies = true
				}
			}
			if dies {
				next.setThresholds(i, p.Initial)
				next.Damage.Values[i] = 0
				cnt.Deaths++
			} else {
				next.Board.Cells[i] = 1
			}
			continue
		}

		if n == 0 {
			continue
		}
		parent := buf[rng.IntN(n)]
		inherited := prev.thresholds(parent)
		if !p.Birth.Test(n, roundThreshold(inherited.Born)) {
			continue
		}
		next.Board.Cells[i] = 1
		cnt.Births++
		if p.Variant == Radiation {
			next.Damage.Values[i] = prev.Damage.Values[parent]
		}
		t, _, mutated := mut.Mutate(inherited, rng)
		if mutated {
			cnt.Mutations++
		}
		next.setThresholds(i, t)
	}
	return cnt
}

// ClassicStep applies B3/S23 to every cell of b, border included, without
// wrapping around the edges.
func ClassicStep(b *Board) *Board {
	next := NewBoard(b.Rows, b.Cols)
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			n := b.Neighbors(r, c)
			next.Set(r, c, n == 3 || (n == 2 && b.Alive(r, c)))
		}
	}
	return next
}

func classicStep(prev *State) (*State, Counts) {
	var cnt Counts
	board := ClassicStep(prev.Board)
	for i, v := range board.Cells {
		switch {
		case v == 1 && prev.Board.Cells[i] == 0:
			cnt.Births++
		case v == 0 && prev.Board.Cells[i] == 1:
			cnt.Deaths++
		}
	}
	// Threshold fields never change under the classic rule and are safe to share.
	return &State{
		Board:   board,
		Lonely:  prev.Lonely,
		Born:    prev.Born,
		Crowded: prev.Crowded,
		Damage:  prev.Damage,
	}, cnt
}

// PlayClassic runs the plain game for n generations and returns every board,
// the initial one first.
func PlayClassic(initial *Board, n int) []*Board {
	boards := make([]*Board, 0, n+1)
	boards = append(boards, initial.Clone())
	for i := 0; i < n; i++ {
		boards = append(boards, ClassicStep(boards[len(boards)-1]))
	}
	return boards
}
