package main

import (
	"os"

	"github.com/joho/godotenv"

	"FeedConsolidator/internal/cli"
)

func main() {
	// Secrets come from the environment; a local .env is a convenience for
	// development and absent in CI.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
