package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// appliedMigration is one row in the migration ledger.
type appliedMigration struct {
	bun.BaseModel `bun:"table:nestsync_migrations,alias:nm"`

	Name      string    `bun:"name,pk"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}

// Apply runs every pending *.up.sql file from fsys against db in filename
// order and records each file in the nestsync_migrations ledger. Files
// already in the ledger are skipped, so running Apply on every startup is
// safe. It returns the names of the files applied during this call.
func Apply(ctx context.Context, db *bun.DB, fsys fs.FS) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("migrations: database is required")
	}
	if _, err := db.NewCreateTable().Model((*appliedMigration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("migrations: create ledger: %w", err)
	}

	files, err := upFiles(fsys)
	if err != nil {
		return nil, err
	}

	var rows []appliedMigration
	if err := db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("migrations: read ledger: %w", err)
	}
	applied := make(map[string]bool, len(rows))
	for _, row := range rows {
		applied[row.Name] = true
	}

	sqlite := db.Dialect().Name() == dialect.SQLite

	var ran []string
	for _, file := range files {
		name := path.Base(file)
		if applied[name] {
			continue
		}
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", name, err)
		}
		statements := splitStatements(string(raw), sqlite)
		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, statement := range statements {
				if _, err := tx.ExecContext(ctx, statement); err != nil {
					return fmt.Errorf("exec %s: %w", name, err)
				}
			}
			ledger := &appliedMigration{Name: name, AppliedAt: time.Now().UTC()}
			if _, err := tx.NewInsert().Model(ledger).Exec(ctx); err != nil {
				return fmt.Errorf("record %s: %w", name, err)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		ran = append(ran, name)
	}
	return ran, nil
}

func upFiles(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".up.sql") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("migrations: scan files: %w", err)
	}
	sort.Slice(files, func(i, j int) bool {
		return path.Base(files[i]) < path.Base(files[j])
	})
	return files, nil
}

func splitStatements(content string, sqlite bool) []string {
	if sqlite {
		// SQLite doesn't understand Postgres JSONB casts in defaults.
		content = strings.ReplaceAll(content, "::jsonb", "")
		content = strings.ReplaceAll(content, "::JSONB", "")
	}
	var statements []string
	for _, chunk := range strings.Split(content, "---bun:split") {
		statement := strings.TrimSpace(chunk)
		if statement == "" {
			continue
		}
		statements = append(statements, statement)
	}
	return statements
}
