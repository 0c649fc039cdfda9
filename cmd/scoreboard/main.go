package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/labscore/internal/app"
	"github.com/shrimpsizemoose/labscore/internal/scoring"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		labID      = flag.Int64("lab", scoring.AllLabs, "Lab id, 0 for the global board")
		all        = flag.Bool("all", false, "Print every entry instead of the displayed ones")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		logger.Debug.Printf("No .env file loaded: %v", err)
	}

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	board, err := service.Scoreboard(context.Background(), *labID)
	if err != nil {
		logger.Error.Fatalf("Failed to build scoreboard: %v", err)
	}
	if board == nil {
		logger.Error.Fatalf("Lab %d not found", *labID)
	}

	entries := board.Displayed()
	if *all {
		entries = board.Entries
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		logger.Error.Fatalf("Failed to encode scoreboard: %v", err)
	}
}
