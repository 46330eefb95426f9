/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/board"
	"github.com/SvenDH/go-life-engine/engine"
	"github.com/SvenDH/go-life-engine/render"
	"github.com/SvenDH/go-life-engine/store"
)

var (
	runGIF     string
	runMJPEG   string
	runChart   string
	runField   string
	runDB      string
	runOwner   string
	runOut     string
	runDelay   int
	runFPS     int
	runLabel   bool
	runVerbose bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [board.csv|board.rle]",
	Short: "Simulate a board with evolvable rules",
	Long: `Simulates the board until the generation budget is spent or it stays
unchanged for --window generations, then prints a summary. The history can be
written as an animated GIF or MJPEG video, the population as a chart and the
final born thresholds as a heat map.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		p, err := paramsFromFlags()
		if err != nil {
			log.Fatal(err)
		}
		initial, err := loadBoard(args[0])
		if err != nil {
			log.Fatal(err)
		}
		p.NoHistory = runGIF == "" && runMJPEG == ""
		sim, err := engine.NewSimulation(initial, p)
		if err != nil {
			log.Fatal(err)
		}
		if runVerbose {
			sim.On(func(g *engine.Generation) {
				log.Printf("generation %d: population %d, births %d, deaths %d, mutations %d",
					g.Index, g.Population, g.Births, g.Deaths, g.Mutations)
			})
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		log.Printf("simulating %dx%d board, %s variant, seed %d", initial.Rows, initial.Cols, p.Variant, p.Seed)
		result, err := sim.Run(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(resultTable(sim.Params, result))

		if err := writeOutputs(sim.Params, result); err != nil {
			log.Fatal(err)
		}
		if runDB != "" {
			repo, err := store.Open(runDB)
			if err != nil {
				log.Fatal(err)
			}
			defer repo.Close()
			run, err := repo.SaveRun(runOwner, sim.Params, result)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("stored run %s in %s", run.Id, runDB)
		}
	},
}

func writeOutputs(p engine.Params, result *engine.Result) error {
	if runOut != "" {
		if err := board.Save(runOut, result.Final.Board); err != nil {
			return err
		}
		log.Printf("saved final board to %s", runOut)
	}
	if runGIF != "" || runMJPEG != "" {
		r, err := rendererFromFlags()
		if err != nil {
			return err
		}
		r.Label = runLabel
		frames := r.Frames(result.History, 1)
		if runGIF != "" {
			if err := writeFile(runGIF, func(w *bufio.Writer) error { return r.WriteGIF(w, frames, runDelay) }); err != nil {
				return err
			}
			log.Printf("wrote %d frames to %s", len(frames), runGIF)
		}
		if runMJPEG != "" {
			if err := render.WriteMJPEG(runMJPEG, frames, runFPS); err != nil {
				return err
			}
			log.Printf("wrote %d frames to %s", len(frames), runMJPEG)
		}
	}
	if runChart != "" {
		if err := writeFile(runChart, func(w *bufio.Writer) error { return render.PopulationChart(w, result.Population) }); err != nil {
			return err
		}
		log.Printf("wrote population chart to %s", runChart)
	}
	if runField != "" && p.Variant != engine.Classic {
		img := render.FieldImage(result.Final.Born, engine.MinThreshold, engine.MaxThreshold, cellSize)
		if err := writeFile(runField, func(w *bufio.Writer) error { return png.Encode(w, img) }); err != nil {
			return err
		}
		log.Printf("wrote born threshold map to %s", runField)
	}
	return nil
}

func writeFile(path string, write func(w *bufio.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(runCmd)

	addSimulationFlags(runCmd)
	addRenderFlags(runCmd)
	runCmd.Flags().StringVar(&runGIF, "gif", "", "Write the history as an animated GIF")
	runCmd.Flags().StringVar(&runMJPEG, "mjpeg", "", "Write the history as an MJPEG .avi video")
	runCmd.Flags().StringVar(&runChart, "chart", "", "Write the population chart as PNG")
	runCmd.Flags().StringVar(&runField, "field", "", "Write the final born thresholds as a PNG heat map")
	runCmd.Flags().StringVar(&runDB, "db", "", "Store the run in this sqlite database")
	runCmd.Flags().StringVar(&runOwner, "owner", "cli", "Owner recorded with a stored run")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Save the final board (.csv or .rle)")
	runCmd.Flags().IntVar(&runDelay, "delay", 30, "GIF frame delay in 1/100 s")
	runCmd.Flags().IntVar(&runFPS, "fps", 5, "Video frames per second")
	runCmd.Flags().BoolVar(&runLabel, "label", false, "Draw the generation number on frames")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Log every generation")
}
