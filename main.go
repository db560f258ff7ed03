package main

import (
	"fmt"
	"os"

	"github.com/gnzdotmx/smartscenecutter/cmd"
	"github.com/gnzdotmx/smartscenecutter/internal/utils"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists; credentials may also come from the environment
	if err := godotenv.Load(); err == nil {
		utils.LogDebug("Loaded environment variables from .env file")
	}
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
