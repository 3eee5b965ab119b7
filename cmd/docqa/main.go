package main

import (
	"github.com/joho/godotenv"

	"docqa/internal/cli"
)

func main() {
	// Optional: OPENAI_API_KEY and friends may live in a .env file.
	_ = godotenv.Load()

	cli.Execute()
}
