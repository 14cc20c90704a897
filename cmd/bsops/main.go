package main

import (
	"os"

	"github.com/barradesonido/bsops/cmd/bsops/cmd"
	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local development; missing file is fine
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
