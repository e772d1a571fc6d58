// Package migrations embeds the Inkwell SQL schema into the binary.
package migrations

import "embed"

// FS holds every migration file at its root; pass "." as the directory
// to database.Migrate.
//
//go:embed *.sql
var FS embed.FS
