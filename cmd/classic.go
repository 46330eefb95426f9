/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/engine"
)

var (
	classicSteps int
	classicGIF   string
	classicDelay int
)

// classicCmd represents the classic command
var classicCmd = &cobra.Command{
	Use:   "classic [board.csv|board.rle]",
	Short: "Play the unmodified B3/S23 game",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initial, err := loadBoard(args[0])
		if err != nil {
			log.Fatal(err)
		}
		boards := engine.PlayClassic(initial, classicSteps)
		final := boards[len(boards)-1]
		fmt.Print(final)
		log.Printf("population after %d steps: %d", classicSteps, final.Population())

		if classicGIF != "" {
			r, err := rendererFromFlags()
			if err != nil {
				log.Fatal(err)
			}
			r.Label = true
			frames := r.Frames(boards, 0)
			if err := writeFile(classicGIF, func(w *bufio.Writer) error { return r.WriteGIF(w, frames, classicDelay) }); err != nil {
				log.Fatal(err)
			}
			log.Printf("wrote %d frames to %s", len(frames), classicGIF)
		}
	},
}

func init() {
	rootCmd.AddCommand(classicCmd)

	addRenderFlags(classicCmd)
	classicCmd.Flags().IntVarP(&classicSteps, "steps", "n", 100, "Number of generations")
	classicCmd.Flags().StringVar(&classicGIF, "gif", "", "Write the game as an animated GIF")
	classicCmd.Flags().IntVar(&classicDelay, "delay", 30, "GIF frame delay in 1/100 s")
	classicCmd.Flags().IntVar(&simPad, "pad", 0, "Dead cells added around the loaded board")
}
