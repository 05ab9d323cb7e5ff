package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
// The migrate runner applies them in version order.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
