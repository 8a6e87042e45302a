// Package migrations embeds the goose SQL migrations for workspace settings databases.
package migrations

import "embed"

// FS holds the *.sql migrations, applied in filename order.
//
//go:embed *.sql
var FS embed.FS
