/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/board"
	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/viewer"
)

var (
	watchEvery   int
	watchRows    int
	watchCols    int
	watchDensity float64
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [board.csv|board.rle]",
	Short: "Watch a simulation live",
	Long: `Opens a window stepping the simulation live. Space pauses, R restarts
with the next seed and Esc quits. Without a board file a random soup is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := paramsFromFlags()
		if err != nil {
			log.Fatal(err)
		}
		var initial *engine.Board
		if len(args) == 1 {
			initial, err = loadBoard(args[0])
			if err != nil {
				log.Fatal(err)
			}
		} else {
			initial = board.Random(watchRows, watchCols, watchDensity, p.Seed)
		}
		r, err := rendererFromFlags()
		if err != nil {
			log.Fatal(err)
		}
		v, err := viewer.New(initial, p, r)
		if err != nil {
			log.Fatal(err)
		}
		v.Every = watchEvery
		if err := v.Run("Evolvable Life"); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addSimulationFlags(watchCmd)
	addRenderFlags(watchCmd)
	watchCmd.Flags().IntVar(&watchEvery, "every", 6, "Ticks between generations (60 ticks per second)")
	watchCmd.Flags().IntVar(&watchRows, "rows", 64, "Rows of a random board")
	watchCmd.Flags().IntVar(&watchCols, "cols", 64, "Columns of a random board")
	watchCmd.Flags().Float64Var(&watchDensity, "density", 0.3, "Live cell density of a random board")
}
