package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/nstehr/dominion/dominion-core/cli"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment")
	}

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
