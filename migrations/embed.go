// Package migrations embeds the PostgreSQL schema.
package migrations

import "embed"

// Files holds every migration script.
//
//go:embed *.sql
var Files embed.FS
