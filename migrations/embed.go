// Package migrations embeds the SQL schema migrations
package migrations

import "embed"

// FS holds every *.up.sql / *.down.sql pair in version order
//
//go:embed *.sql
var FS embed.FS
