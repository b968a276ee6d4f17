// Package migrations embeds the PostgreSQL schema migrations so that the
// server and the migrate CLI can run them without files on disk.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
