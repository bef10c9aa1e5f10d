package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// TxBeginner opens a transaction. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in file-name order, inside one transaction.
func Migrate(ctx context.Context, db TxBeginner) ([]string, error) {
	names, err := migrationNames()
	if err != nil {
		return nil, fmt.Errorf("postgres.Migrate: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres.Migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		     version    TEXT PRIMARY KEY,
		     applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		 )`)
	if err != nil {
		return nil, fmt.Errorf("postgres.Migrate: create schema_migrations: %w", err)
	}

	var applied []string
	for _, name := range names {
		var done bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, name,
		).Scan(&done)
		if err != nil {
			return nil, fmt.Errorf("postgres.Migrate: check %s: %w", name, err)
		}
		if done {
			continue
		}

		body, err := fs.ReadFile(migrationFS, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("postgres.Migrate: read %s: %w", name, err)
		}

		if _, err = tx.Exec(ctx, string(body)); err != nil {
			return nil, fmt.Errorf("postgres.Migrate: apply %s: %w", name, err)
		}

		if _, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			return nil, fmt.Errorf("postgres.Migrate: record %s: %w", name, err)
		}

		applied = append(applied, name)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres.Migrate: commit: %w", err)
	}

	return applied, nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}
