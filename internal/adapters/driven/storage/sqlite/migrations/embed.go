// Package migrations holds the numbered schema files applied by the SQLite
// key-value store. Only *.up.sql files are run, in name order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
