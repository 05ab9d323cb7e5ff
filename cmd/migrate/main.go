// migrate applies or rolls back the embedded schema: go run ./cmd/migrate -direction up|down.
package main

import (
	"flag"
	"log/slog"
	"os"

	"projecthub/backend/internal/config"
	"projecthub/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", migrate.Up, "migration direction: up or down")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		logger.Error("migrate failed", "direction", *direction, "error", err)
		os.Exit(1)
	}
	logger.Info("migrations applied", "direction", *direction)
}
