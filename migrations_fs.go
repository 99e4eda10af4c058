package issues

import (
	"embed"
	"io/fs"
)

// migrationsFS holds the delivery log schema. Postgres files sit at the root of
// data/sql/migrations and the sqlite variants under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

func GetMigrationsFS() fs.FS {
	return migrationsFS
}
