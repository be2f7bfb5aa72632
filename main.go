package main

import (
	"os"

	"github.com/spigell/coldmail/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
