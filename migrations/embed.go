// Package migrations embeds the goose SQL migrations applied by cmd/migrate.
// cmd/worker does not apply them; database.auto_migrate is read only by
// database.RunMigrations, which no command calls.
package migrations

import "embed"

//go:embed sql/*.sql
var SQLMigrations embed.FS
