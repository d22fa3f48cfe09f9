// Package migrations embeds the SQL migrations applied at startup when the
// Postgres credential store is configured.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
