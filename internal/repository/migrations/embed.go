package migrations

import "embed"

// FS contains the embedded PostgreSQL schema of the local mirror.
//
//go:embed *.sql
var FS embed.FS
