// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the Postgres schema migrations.
// Formato de archivo: {version}_{name}.up.sql / {version}_{name}.down.sql
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "sql"
