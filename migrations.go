package nestsync

import (
	"embed"
)

//go:embed data/sql/migrations/*.sql
var migrationsFS embed.FS

// GetMigrationsFS exposes the embedded SQL migrations so embedding hosts can
// apply them through internal/migrations or their own migrator.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
