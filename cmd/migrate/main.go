package main

// Apply, roll back or inspect database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"flag"
	"os"

	"execsummary-backend/internal/shared/config"
	"execsummary-backend/internal/shared/storage/db"
	"execsummary-backend/internal/shared/telemetry"
)

func main() {
	flag.Parse()
	command := db.MigrateUp
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, command); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": command, "error": err.Error()})
		sqlDB.Close()
		os.Exit(1)
	}
}
