// Package migrations embeds the schema migrations, one directory per goose
// dialect.
package migrations

import "embed"

// FS holds mysql/, postgres/ and sqlite3/.
//
//go:embed mysql/*.sql postgres/*.sql sqlite3/*.sql
var FS embed.FS
