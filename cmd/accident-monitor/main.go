package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found — using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "accident-monitor",
		Short: "Accident Monitor - vehicle accident event ingestion and live streaming",
		Long: `Records accident-sensor events per vehicle, maintains a latest-state
summary alongside a full append-only event history, and republishes events
to live SSE/websocket subscribers.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(initDBCmd())
	rootCmd.AddCommand(seedKeysCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
