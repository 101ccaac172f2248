package main

import (
	"context"
	"flag"
	"log"

	"github.com/fleetops/optimizer/migrations"
	"github.com/fleetops/optimizer/pkg/config"
	"github.com/fleetops/optimizer/pkg/database"
)

func main() {
	action := flag.String("action", "up", "migration action: up, down, status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := database.NewMigrator(db.Pool(), migrations.SQLMigrations, "sql")

	switch *action {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = migrator.Status(ctx)
	default:
		log.Fatalf("unknown action %q, expected up, down, or status", *action)
	}
	if err != nil {
		log.Fatalf("migration %s failed: %v", *action, err)
	}
}
