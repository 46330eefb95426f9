package engine

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func boardOf(t *testing.T, lines ...string) *Board {
	t.Helper()
	rows := make([][]bool, len(lines))
	for i, line := range lines {
		rows[i] = make([]bool, len(line))
		for j, ch := range line {
			rows[i][j] = ch == '#'
		}
	}
	b, err := BoardFromRows(rows)
	if err != nil {
		t.Fatalf("BoardFromRows: %v", err)
	}
	return b
}

func soup(rows, cols int, seed uint64) *Board {
	rng := rand.New(rand.NewPCG(seed, 0))
	b := NewBoard(rows, cols)
	for r := 1; r < rows-1; r++ {
		for c := 1; c < cols-1; c++ {
			b.Set(r, c, rng.Float64() < 0.35)
		}
	}
	return b
}

func blinker(t *testing.T) *Board {
	return boardOf(t,
		".......",
		".......",
		".......",
		"..###..",
		".......",
		".......",
		".......",
	)
}

func TestBoardFromRowsRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		rows [][]bool
	}{
		{"empty", [][]bool{}},
		{"ragged", [][]bool{{false, false, false}, {false, false}, {false, false, false}}},
		{"too few rows", [][]bool{{false, false, false}, {false, false, false}}},
		{"too few columns", [][]bool{{false, false}, {false, false}, {false, false}}},
	}
	for _, tt := range tests {
		if _, err := BoardFromRows(tt.rows); !errors.Is(err, ErrInvalidBoard) {
			t.Fatalf("%s: expected ErrInvalidBoard, got %v", tt.name, err)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	base := DefaultParams()
	tests := []struct {
		name   string
		modify func(p *Params)
		ok     bool
	}{
		{"defaults", func(p *Params) {}, true},
		{"rate above one", func(p *Params) { p.MutationRate = 1.5 }, false},
		{"negative rate", func(p *Params) { p.MutationRate = -0.1 }, false},
		{"negative magnitude", func(p *Params) { p.MutationMagnitude = -1 }, false},
		{"zero generations", func(p *Params) { p.Generations = 0 }, false},
		{"radiation without settings", func(p *Params) { p.Variant = Radiation }, false},
		{"zero gap", func(p *Params) { p.Radiation = &RadiationParams{Strength: 1} }, false},
		{"negative strength", func(p *Params) { p.Radiation = &RadiationParams{Strength: -1, Gap: 4} }, false},
		{"radiation", func(p *Params) { p.Radiation = &RadiationParams{Strength: 1, Gap: 4} }, true},
		{"initial out of range", func(p *Params) { p.Initial.Crowded = 9 }, false},
		{"bad comparator", func(p *Params) { p.Birth = Comparator(7) }, false},
		{"nan rate", func(p *Params) { p.MutationRate = math.NaN() }, false},
		{"nan magnitude", func(p *Params) { p.MutationMagnitude = math.NaN() }, false},
		{"infinite magnitude", func(p *Params) { p.MutationMagnitude = math.Inf(1) }, false},
		{"nan initial", func(p *Params) { p.Initial.Born = math.NaN() }, false},
		{"infinite initial", func(p *Params) { p.Initial.Lonely = math.Inf(-1) }, false},
		{"nan strength", func(p *Params) { p.Radiation = &RadiationParams{Strength: math.NaN(), Gap: 4} }, false},
		{"infinite strength", func(p *Params) { p.Radiation = &RadiationParams{Strength: math.Inf(1), Gap: 4} }, false},
	}
	for _, tt := range tests {
		p := base
		tt.modify(&p)
		err := p.Normalize().Validate()
		if tt.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("%s: expected ErrInvalidParameter, got %v", tt.name, err)
		}
	}
}

func TestNewSimulationRejectsBadParams(t *testing.T) {
	p := DefaultParams()
	p.MutationRate = 2
	if _, err := NewSimulation(blinker(t), p); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := NewSimulation(&Board{Rows: 2, Cols: 2, Cells: make([]uint8, 4)}, DefaultParams()); !errors.Is(err, ErrInvalidBoard) {
		t.Fatalf("expected ErrInvalidBoard, got %v", err)
	}
	for _, b := range []*Board{
		{Rows: 1 << 32, Cols: 1 << 32},
		{Rows: -4, Cols: -4, Cells: make([]uint8, 16)},
	} {
		if _, err := NewSimulation(b, DefaultParams()); !errors.Is(err, ErrInvalidBoard) {
			t.Fatalf("%dx%d: expected ErrInvalidBoard, got %v", b.Rows, b.Cols, err)
		}
	}
}

func TestNeighbors(t *testing.T) {
	b := boardOf(t,
		"###",
		"#.#",
		"###",
	)
	if n := b.Neighbors(1, 1); n != 8 {
		t.Fatalf("centre has %d neighbours, expected 8", n)
	}
	if n := b.Neighbors(0, 0); n != 2 {
		t.Fatalf("corner has %d neighbours, expected 2", n)
	}
}

func TestClassicRuleRegression(t *testing.T) {
	p := DefaultParams()
	p.Generations = 6
	sim, err := NewSimulation(blinker(t), p)
	if err != nil {
		t.Fatal(err)
	}
	expected := blinker(t)
	for gen := 1; gen <= 6; gen++ {
		expected = ClassicStep(expected)
		g, ok := sim.Step()
		if !ok {
			t.Fatalf("simulation stopped at generation %d", gen)
		}
		if !g.Board.Equal(expected) {
			t.Fatalf("generation %d differs from the classic rule:\n%s\nexpected:\n%s", gen, g.Board, expected)
		}
	}
	res := sim.Result()
	if !reflect.DeepEqual(res.Population, []int{3, 3, 3, 3, 3, 3}) {
		t.Fatalf("unexpected population %v", res.Population)
	}
	if res.SteadyState {
		t.Fatalf("blinker reported as steady")
	}
}

func TestClassicVariantMatchesPlayClassic(t *testing.T) {
	b := boardOf(t,
		"##....",
		"##....",
		"......",
		"...#..",
		"...#..",
		"...#..",
	)
	p := DefaultParams()
	p.Variant = Classic
	p.Generations = 5
	res, err := Run(context.Background(), b, p)
	if err != nil {
		t.Fatal(err)
	}
	boards := PlayClassic(b, 5)
	for k, h := range res.History {
		if !h.Equal(boards[k+1]) {
			t.Fatalf("generation %d differs:\n%s\nexpected:\n%s", k+1, h, boards[k+1])
		}
	}
	if !res.History[0].Alive(0, 0) {
		t.Fatalf("classic variant should keep the corner block on the border alive")
	}
}

func TestBoundaryStaysDead(t *testing.T) {
	p := DefaultParams()
	p.Generations = 60
	p.MutationRate = 0.8
	p.MutationMagnitude = 3
	p.Birth = AtLeast
	p.Radiation = &RadiationParams{Strength: 0.2, Gap: 4}
	p.Seed = 7
	b := soup(16, 20, 3)
	for c := 0; c < b.Cols; c++ {
		b.Set(0, c, true)
	}
	res, err := Run(context.Background(), b, p)
	if err != nil {
		t.Fatal(err)
	}
	for k, h := range res.History {
		for r := 0; r < h.Rows; r++ {
			for c := 0; c < h.Cols; c++ {
				border := r == 0 || c == 0 || r == h.Rows-1 || c == h.Cols-1
				if border && h.Alive(r, c) {
					t.Fatalf("border cell (%d,%d) alive in generation %d", r, c, k+1)
				}
			}
		}
	}
}

func TestMutatorClipsAndChangesOneTrait(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	m := Mutator{Rate: 1, Magnitude: 100}
	parent := Thresholds{Lonely: 4, Born: 4, Crowded: 4}
	for i := 0; i < 2000; i++ {
		child, trait, ok := m.Mutate(parent, rng)
		if !ok {
			t.Fatalf("rate 1 did not mutate")
		}
		for _, v := range []float64{child.Lonely, child.Born, child.Crowded} {
			if v < 0 || v > 8 {
				t.Fatalf("threshold %v outside [0,8]", v)
			}
		}
		changed := changedTraits(parent, child)
		if len(changed) != 1 || changed[0] != trait {
			t.Fatalf("mutation of %s changed %v", trait, changed)
		}
	}
}

func changedTraits(parent, child Thresholds) []Trait {
	changed := []Trait{}
	if child.Lonely != parent.Lonely {
		changed = append(changed, Lonely)
	}
	if child.Born != parent.Born {
		changed = append(changed, Born)
	}
	if child.Crowded != parent.Crowded {
		changed = append(changed, Crowded)
	}
	return changed
}

func TestStepMutatesExactlyOneTraitPerBirth(t *testing.T) {
	p := DefaultParams()
	p.Initial = Thresholds{Lonely: 4, Born: 4, Crowded: 4}
	p.MutationRate = 1
	p.MutationMagnitude = 3
	p.Seed = 21
	p = p.Normalize()
	prev := NewState(soup(40, 40, 3), p.Initial)
	next, cnt := Step(p, prev, 1)

	births, diffs := 0, 0
	for r := 0; r < prev.Board.Rows; r++ {
		for c := 0; c < prev.Board.Cols; c++ {
			if prev.Board.Alive(r, c) || !next.Board.Alive(r, c) {
				continue
			}
			births++
			changed := changedTraits(p.Initial, next.Thresholds(r, c))
			if len(changed) != 1 {
				t.Fatalf("newborn (%d,%d) changed %v", r, c, changed)
			}
			diffs += len(changed)
		}
	}
	if births == 0 || births != cnt.Births {
		t.Fatalf("counted %d births, step reported %d", births, cnt.Births)
	}
	if diffs != cnt.Mutations {
		t.Fatalf("%d mutated traits, step reported %d mutations", diffs, cnt.Mutations)
	}
}

func TestMutatorRateZeroNeverMutates(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	m := Mutator{Rate: 0, Magnitude: 5}
	for i := 0; i < 500; i++ {
		if _, _, ok := m.Mutate(DefaultThresholds, rng); ok {
			t.Fatalf("rate 0 mutated")
		}
	}
}

func TestIntegerMutationKeepsIntegers(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	m := Mutator{Rate: 1, Magnitude: 1.7, Integer: true}
	for i := 0; i < 500; i++ {
		child, _, _ := m.Mutate(DefaultThresholds, rng)
		for _, v := range []float64{child.Lonely, child.Born, child.Crowded} {
			if v != math.Trunc(v) {
				t.Fatalf("integer mutation produced %v", v)
			}
		}
	}
}

func TestBirthInheritsParentThresholds(t *testing.T) {
	b := boardOf(t,
		".......",
		".......",
		"..###..",
		".......",
		".......",
	)
	custom := Thresholds{Lonely: 1.2, Born: 3.4, Crowded: 5.5}
	prev := NewState(b, DefaultThresholds)
	for c := 2; c <= 4; c++ {
		prev.setThresholds(2*b.Cols+c, custom)
	}
	p := DefaultParams().Normalize()
	next, cnt := Step(p, prev, 1)
	if cnt.Births != 2 {
		t.Fatalf("expected 2 births, got %d", cnt.Births)
	}
	for _, pos := range [][2]int{{1, 3}, {3, 3}} {
		if !next.Board.Alive(pos[0], pos[1]) {
			t.Fatalf("cell %v not born", pos)
		}
		if got := next.Thresholds(pos[0], pos[1]); got != custom {
			t.Fatalf("cell %v inherited %+v, expected %+v", pos, got, custom)
		}
	}
	if prev.Board.Alive(1, 3) {
		t.Fatalf("step wrote into the previous generation")
	}
}

func TestDeadCellResetsToDefaults(t *testing.T) {
	b := boardOf(t,
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)
	prev := NewState(b, DefaultThresholds)
	prev.setThresholds(2*b.Cols+2, Thresholds{Lonely: 1, Born: 6, Crowded: 7})
	next, cnt := Step(DefaultParams().Normalize(), prev, 1)
	if cnt.Deaths != 1 || next.Board.Alive(2, 2) {
		t.Fatalf("lonely cell survived")
	}
	if got := next.Thresholds(2, 2); got != DefaultThresholds {
		t.Fatalf("dead cell carries %+v, expected %+v", got, DefaultThresholds)
	}
	// The post-death born value is the shared default, never a sentinel.
	if next.Born.At(2, 2) != 3 {
		t.Fatalf("dead cell born threshold %v", next.Born.At(2, 2))
	}
}

func TestComparators(t *testing.T) {
	tests := []struct {
		cmp  Comparator
		n    int
		born int
		ok   bool
	}{
		{Equal, 3, 3, true},
		{Equal, 4, 3, false},
		{AtLeast, 4, 3, true},
		{AtLeast, 2, 3, false},
		{AtMost, 2, 3, true},
		{AtMost, 4, 3, false},
	}
	for _, tt := range tests {
		if got := tt.cmp.Test(tt.n, tt.born); got != tt.ok {
			t.Fatalf("%s.Test(%d, %d) = %v", tt.cmp, tt.n, tt.born, got)
		}
	}
	for _, s := range []string{"eq", "ge", "le"} {
		c, err := ParseComparator(s)
		if err != nil || c.String() != s {
			t.Fatalf("ParseComparator(%q) = %v, %v", s, c, err)
		}
	}
	if _, err := ParseComparator("gt"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestComparatorBirths(t *testing.T) {
	// The centre sees 4 live cells, (2,1) sees 2.
	b := boardOf(t,
		".....",
		".#.#.",
		".....",
		".#.#.",
		".....",
	)
	tests := []struct {
		cmp    Comparator
		centre bool
		side   bool
	}{
		{Equal, false, false},
		{AtLeast, true, false},
		{AtMost, false, true},
	}
	for _, tt := range tests {
		p := DefaultParams()
		p.Birth = tt.cmp
		next, _ := Step(p.Normalize(), NewState(b, DefaultThresholds), 1)
		if next.Board.Alive(2, 2) != tt.centre || next.Board.Alive(2, 1) != tt.side {
			t.Fatalf("%s: centre=%v side=%v", tt.cmp, next.Board.Alive(2, 2), next.Board.Alive(2, 1))
		}
	}
}

func TestSteadyStateTerminates(t *testing.T) {
	block := boardOf(t,
		"......",
		"......",
		"..##..",
		"..##..",
		"......",
		"......",
	)
	p := DefaultParams()
	p.Generations = 100
	res, err := Run(context.Background(), block, p)
	if err != nil {
		t.Fatal(err)
	}
	if !res.SteadyState || res.Generations != 10 || res.SteadyGeneration != 0 {
		t.Fatalf("unexpected termination: steady=%v generations=%d start=%d", res.SteadyState, res.Generations, res.SteadyGeneration)
	}
	if len(res.Population) != res.Generations {
		t.Fatalf("population length %d for %d generations", len(res.Population), res.Generations)
	}
}

func TestSteadyStateStreakStart(t *testing.T) {
	// A lone cell dies in generation 1, then the empty board repeats.
	b := boardOf(t,
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)
	p := DefaultParams()
	p.Generations = 50
	p.SteadyWindow = 5
	res, err := Run(context.Background(), b, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Generations != 6 || res.SteadyGeneration != 1 {
		t.Fatalf("generations=%d steady start=%d, expected 6 and 1", res.Generations, res.SteadyGeneration)
	}
}

func TestOscillatorExhaustsBudget(t *testing.T) {
	p := DefaultParams()
	p.Generations = 30
	res, err := Run(context.Background(), blinker(t), p)
	if err != nil {
		t.Fatal(err)
	}
	if res.SteadyState || res.Generations != 30 || len(res.History) != 30 {
		t.Fatalf("steady=%v generations=%d history=%d", res.SteadyState, res.Generations, len(res.History))
	}
}

func TestSteadyStateDetectorResets(t *testing.T) {
	a := blinker(t)
	b := ClassicStep(a)
	s := NewSteadyState(2)
	if s.Observe(a, a) || s.Streak() != 1 {
		t.Fatalf("expected streak 1")
	}
	if s.Observe(a, b) || s.Streak() != 0 {
		t.Fatalf("expected reset")
	}
	s.Observe(b, b)
	if !s.Observe(b, b) {
		t.Fatalf("expected window reached")
	}
}

func TestNoHistoryKeepsOnlyTheFinalBoard(t *testing.T) {
	p := DefaultParams()
	p.Generations = 25
	p.MutationRate = 0.2
	p.Seed = 4
	p.NoHistory = true
	res, err := Run(context.Background(), soup(20, 20, 5), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.History) != 0 {
		t.Fatalf("expected no history, got %d boards", len(res.History))
	}
	if len(res.Population) != res.Generations || res.Final.Board.Population() != res.Population[len(res.Population)-1] {
		t.Fatalf("population %v does not end at final board", res.Population)
	}
}

func TestPopulationBookkeeping(t *testing.T) {
	p := DefaultParams()
	p.Generations = 40
	p.MutationRate = 0.4
	p.MutationMagnitude = 1.5
	p.Seed = 11
	res, err := Run(context.Background(), soup(24, 24, 9), p)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Population) != res.Generations || len(res.History) != res.Generations || len(res.Counts) != res.Generations {
		t.Fatalf("lengths %d/%d/%d for %d generations", len(res.Population), len(res.History), len(res.Counts), res.Generations)
	}
	for k, pop := range res.Population {
		if pop != res.History[k].Population() {
			t.Fatalf("population[%d] = %d, board has %d", k, pop, res.History[k].Population())
		}
	}
	if res.Stats.Population != res.Final.Board.Population() {
		t.Fatalf("stats population %d", res.Stats.Population)
	}
}

func TestIrradiate(t *testing.T) {
	r := RadiationParams{Strength: 1, Gap: 4}
	damage := 0.0
	var killed bool
	expected := []float64{0, 0, 0, 0.85, 0.70, 0.55}
	for gen := 1; gen <= 6; gen++ {
		damage, killed = r.Irradiate(gen, damage, 3)
		if math.Abs(damage-expected[gen-1]) > 1e-9 {
			t.Fatalf("generation %d damage %v, expected %v", gen, damage, expected[gen-1])
		}
		if killed != (gen == 6) {
			t.Fatalf("generation %d killed=%v", gen, killed)
		}
	}
}

func TestRadiationKillsStableBlock(t *testing.T) {
	block := boardOf(t,
		"......",
		"......",
		"..##..",
		"..##..",
		"......",
		"......",
	)
	p := DefaultParams()
	p.Generations = 6
	p.Radiation = &RadiationParams{Strength: 1, Gap: 4}
	res, err := Run(context.Background(), block, p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Population, []int{4, 4, 4, 4, 4, 0}) {
		t.Fatalf("unexpected population %v", res.Population)
	}
	if res.Counts[5].RadiationDeaths != 4 {
		t.Fatalf("expected 4 radiation deaths, got %+v", res.Counts[5])
	}
	if res.Final.Damage.Mean() != 0 {
		t.Fatalf("damage not reset on death")
	}

	p.Radiation.Strength = 0
	res, err = Run(context.Background(), block, p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Population[5] != 4 {
		t.Fatalf("block died without radiation")
	}
}

func TestWorkersDoNotChangeOutcome(t *testing.T) {
	p := DefaultParams()
	p.Generations = 25
	p.MutationRate = 0.5
	p.MutationMagnitude = 1.5
	p.Radiation = &RadiationParams{Strength: 0.3, Gap: 4}
	p.Seed = 42
	b := soup(30, 30, 1)

	p.Workers = 1
	seq, err := Run(context.Background(), b, p)
	if err != nil {
		t.Fatal(err)
	}
	p.Workers = 4
	par, err := Run(context.Background(), b, p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq.Population, par.Population) {
		t.Fatalf("populations differ: %v vs %v", seq.Population, par.Population)
	}
	if !reflect.DeepEqual(seq.Final.Born.Values, par.Final.Born.Values) {
		t.Fatalf("born fields differ")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, blinker(t), DefaultParams()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestHandlersSeeEveryGeneration(t *testing.T) {
	p := DefaultParams()
	p.Generations = 5
	sim, err := NewSimulation(blinker(t), p)
	if err != nil {
		t.Fatal(err)
	}
	seen := []int{}
	sim.On(func(g *Generation) { seen = append(seen, g.Index) })
	if _, err := sim.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seen, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("handler saw %v", seen)
	}
}
