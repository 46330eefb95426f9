/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/board"
)

var (
	randomRows    int
	randomCols    int
	randomDensity float64
	randomSeed    uint64
)

// randomCmd represents the random command
var randomCmd = &cobra.Command{
	Use:   "random [out.csv|out.rle]",
	Short: "Write a random soup board",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b := board.Random(randomRows, randomCols, randomDensity, randomSeed)
		if err := board.Save(args[0], b); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %dx%d board with %d live cells to %s", b.Rows, b.Cols, b.Population(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(randomCmd)

	randomCmd.Flags().IntVar(&randomRows, "rows", 64, "Number of rows")
	randomCmd.Flags().IntVar(&randomCols, "cols", 64, "Number of columns")
	randomCmd.Flags().Float64VarP(&randomDensity, "density", "d", 0.3, "Probability of a live interior cell")
	randomCmd.Flags().Uint64VarP(&randomSeed, "seed", "s", 0, "Random seed")
}
