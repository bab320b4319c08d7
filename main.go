package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/silacode/customer-support-agent/cmd"
)

func main() {
	// Optional .env for API keys and local overrides.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
