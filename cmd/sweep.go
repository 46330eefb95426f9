/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SvenDH/go-life-engine/board"
	"github.com/SvenDH/go-life-engine/engine"
)

var (
	sweepRates    []float64
	sweepSeeds    int
	sweepParallel int
	sweepRows     int
	sweepCols     int
	sweepDensity  float64
	sweepOut      string
)

type sweepResult struct {
	rate   float64
	seed   uint64
	result *engine.Result
}

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep [board.csv|board.rle]",
	Short: "Run a grid of mutation rates and seeds in parallel",
	Long: `Runs one simulation per mutation rate and seed and writes a CSV summary.
Without a board file every run starts from a random soup generated from its seed.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		base, err := paramsFromFlags()
		if err != nil {
			log.Fatal(err)
		}
		var initial *engine.Board
		if len(args) == 1 {
			if initial, err = loadBoard(args[0]); err != nil {
				log.Fatal(err)
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		results, err := sweep(ctx, base, initial)
		if err != nil {
			log.Fatal(err)
		}

		out := io.Writer(os.Stdout)
		if sweepOut != "" {
			file, err := os.Create(sweepOut)
			if err != nil {
				log.Fatal(err)
			}
			defer file.Close()
			out = file
		}
		if err := writeSweep(out, results); err != nil {
			log.Fatal(err)
		}
	},
}

func sweep(ctx context.Context, base engine.Params, initial *engine.Board) ([]sweepResult, error) {
	if sweepParallel < 1 {
		return nil, fmt.Errorf("--parallel must be at least 1, got %d", sweepParallel)
	}
	results := make([]sweepResult, len(sweepRates)*sweepSeeds)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepParallel)
	for i, rate := range sweepRates {
		for j := 0; j < sweepSeeds; j++ {
			k := i*sweepSeeds + j
			p := base
			p.MutationRate = rate
			p.Seed = base.Seed + uint64(j)
			p.NoHistory = true
			g.Go(func() error {
				b := initial
				if b == nil {
					b = board.Random(sweepRows, sweepCols, sweepDensity, p.Seed)
				}
				result, err := engine.Run(ctx, b, p)
				if err != nil {
					return fmt.Errorf("rate %v seed %d: %w", rate, p.Seed, err)
				}
				log.Printf("rate %v seed %d: %d generations, population %d", rate, p.Seed, result.Generations, result.Stats.Population)
				results[k] = sweepResult{rate: rate, seed: p.Seed, result: result}
				return nil
			})
		}
	}
	return results, g.Wait()
}

func writeSweep(w io.Writer, results []sweepResult) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"rate", "seed", "generations", "steady", "steady_generation", "population", "mean_lonely", "mean_born", "mean_crowded", "mean_damage"})
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
	for _, r := range results {
		s := r.result.Stats
		cw.Write([]string{
			strconv.FormatFloat(r.rate, 'g', -1, 64),
			strconv.FormatUint(r.seed, 10),
			strconv.Itoa(r.result.Generations),
			strconv.FormatBool(r.result.SteadyState),
			strconv.Itoa(r.result.SteadyGeneration),
			strconv.Itoa(s.Population),
			f(s.MeanLonely), f(s.MeanBorn), f(s.MeanCrowded), f(s.MeanDamage),
		})
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	addSimulationFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepRates, "rates", []float64{0, 0.001, 0.01, 0.1}, "Mutation rates to try")
	sweepCmd.Flags().IntVar(&sweepSeeds, "seeds", 4, "Seeds per rate, counting up from --seed")
	sweepCmd.Flags().IntVarP(&sweepParallel, "parallel", "p", runtime.GOMAXPROCS(0), "Simulations running at once")
	sweepCmd.Flags().IntVar(&sweepRows, "rows", 64, "Rows of generated boards")
	sweepCmd.Flags().IntVar(&sweepCols, "cols", 64, "Columns of generated boards")
	sweepCmd.Flags().Float64Var(&sweepDensity, "density", 0.3, "Live cell density of generated boards")
	sweepCmd.Flags().StringVarP(&sweepOut, "out", "o", "", "CSV output file (default stdout)")
}
