/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/SvenDH/go-life-engine/server"
	"github.com/SvenDH/go-life-engine/store"
)

var (
	serveAddr   string
	serveDB     string
	serveSecret string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run API and live websocket streams",
	Run: func(cmd *cobra.Command, args []string) {
		if serveSecret == "" {
			serveSecret = os.Getenv("LIFE_SECRET")
		}
		if serveSecret == "" {
			log.Fatal("a token secret is required: pass --secret or set LIFE_SECRET")
		}
		repo, err := store.Open(serveDB)
		if err != nil {
			log.Fatal(err)
		}
		defer repo.Close()

		broker := server.NewMemoryBroker()
		wsServer := server.NewWebsocketServer(broker, repo)
		defer wsServer.Close()
		router := server.NewRouter(serveAddr, repo, server.NewAuth(serveSecret), wsServer)
		if err := router.Run(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveDB, "db", "life.db", "sqlite database")
	serveCmd.Flags().StringVar(&serveSecret, "secret", "", "HMAC secret for access tokens (default $LIFE_SECRET)")
}
