/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "life",
	Short: "Game of Life with evolvable rules",
	Long: `Simulates Conway's Game of Life where every cell carries its own
lonely, born and crowded thresholds. Newborn cells inherit the thresholds of a
random live neighbour, optionally mutated, and radiation can kill damaged cells.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
