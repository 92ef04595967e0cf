package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds every schema migration; versions come from the file names.
var Migrations = migrate.NewMigrations()
