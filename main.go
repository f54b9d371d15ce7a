package main

import (
	"os"

	"draft_worker/internal/cli"
	"draft_worker/pkg/logger"

	"github.com/joho/godotenv"
)

// Set by ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	cli.SetVersionInfo(version, commit)
	if err := cli.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
