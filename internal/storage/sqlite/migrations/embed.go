package migrations

import "embed"

// FS contains embedded SQLite migrations for bundle configuration storage.
//
//go:embed *.sql
var FS embed.FS
