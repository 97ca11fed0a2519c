// Package migrations embeds the SQL schema for the action store.
//
// The files are compiled into the binary so a fresh install only needs
// the executable.
package migrations

import "embed"

// FS holds every *.sql migration at its root. Pass it to
// database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
