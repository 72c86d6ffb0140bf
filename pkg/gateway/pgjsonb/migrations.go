package pgjsonb

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations is the goose-compatible filesystem for the `documents` table,
// for callers to pass to fixgres.WithGooseUp or goose.Up directly.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
