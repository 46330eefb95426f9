/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/board"
	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/render"
)

// Simulation flags shared by run, sweep and watch.
var (
	simVariant     string
	simGenerations int
	simRate        float64
	simMagnitude   float64
	simInteger     bool
	simStrength    float64
	simGap         int
	simBirth       string
	simLonely      float64
	simBorn        float64
	simCrowded     float64
	simWindow      int
	simSeed        uint64
	simWorkers     int
	simPad         int

	cellSize  int
	cellShape string
)

func addSimulationFlags(cmd *cobra.Command) {
	d := engine.DefaultParams()
	cmd.Flags().StringVarP(&simVariant, "variant", "v", d.Variant.String(), "Rule variant: mutation, radiation or classic")
	cmd.Flags().IntVarP(&simGenerations, "generations", "g", d.Generations, "Maximum number of generations")
	cmd.Flags().Float64VarP(&simRate, "rate", "r", 0.01, "Mutation probability per birth")
	cmd.Flags().Float64VarP(&simMagnitude, "magnitude", "m", 0.5, "Standard deviation of a mutation step")
	cmd.Flags().BoolVar(&simInteger, "integer", false, "Round mutated thresholds to whole numbers")
	cmd.Flags().Float64Var(&simStrength, "radiation", 0, "Radiation strength (selects the radiation variant when > 0)")
	cmd.Flags().IntVar(&simGap, "gap", 10, "Generations between radiation pulses")
	cmd.Flags().StringVar(&simBirth, "birth", d.Birth.String(), "Birth comparator: eq, ge or le")
	cmd.Flags().Float64Var(&simLonely, "lonely", d.Initial.Lonely, "Initial lonely threshold")
	cmd.Flags().Float64Var(&simBorn, "born", d.Initial.Born, "Initial born threshold")
	cmd.Flags().Float64Var(&simCrowded, "crowded", d.Initial.Crowded, "Initial crowded threshold")
	cmd.Flags().IntVar(&simWindow, "window", d.SteadyWindow, "Unchanged generations that end a run")
	cmd.Flags().Uint64VarP(&simSeed, "seed", "s", 0, "Random seed")
	cmd.Flags().IntVarP(&simWorkers, "workers", "w", d.Workers, "Worker goroutines per generation")
	cmd.Flags().IntVar(&simPad, "pad", 0, "Dead cells added around the loaded board")
}

func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&cellSize, "cell", 10, "Pixel size of one cell")
	cmd.Flags().StringVar(&cellShape, "shape", render.Ellipse.String(), "Cell shape: ellipse, rectangle or circle_inset")
}

func paramsFromFlags() (engine.Params, error) {
	p := engine.DefaultParams()
	variant, err := engine.ParseVariant(simVariant)
	if err != nil {
		return p, err
	}
	birth, err := engine.ParseComparator(simBirth)
	if err != nil {
		return p, err
	}
	p.Variant = variant
	p.Generations = simGenerations
	p.MutationRate = simRate
	p.MutationMagnitude = simMagnitude
	p.IntegerMutation = simInteger
	p.Birth = birth
	p.Initial = engine.Thresholds{Lonely: simLonely, Born: simBorn, Crowded: simCrowded}
	p.SteadyWindow = simWindow
	p.Seed = simSeed
	p.Workers = simWorkers
	if simStrength > 0 || variant == engine.Radiation {
		p.Radiation = &engine.RadiationParams{Strength: simStrength, Gap: simGap}
	}
	p = p.Normalize()
	return p, p.Validate()
}

func loadBoard(path string) (*engine.Board, error) {
	b, err := board.Load(path)
	if err != nil {
		return nil, err
	}
	return board.Pad(b, simPad), nil
}

func rendererFromFlags() (*render.Renderer, error) {
	shape, err := render.ParseShape(cellShape)
	if err != nil {
		return nil, err
	}
	r := render.NewRenderer(cellSize)
	r.Shape = shape
	return r, nil
}
