/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/store"
)

var (
	runsDB    string
	runsLimit int
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs",
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := store.Open(runsDB)
		if err != nil {
			log.Fatal(err)
		}
		defer repo.Close()
		runs, err := repo.ListRuns(runsLimit)
		if err != nil {
			log.Fatal(err)
		}
		if len(runs) == 0 {
			fmt.Println("no runs stored")
			return
		}
		fmt.Println(runsTable(runs))
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDB, "db", "life.db", "sqlite database")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
}
