package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/covermatch/internal/storage/migrations"
	_ "modernc.org/sqlite"
)

// DefaultSQLitePath is used when no sqlite DSN is configured
const DefaultSQLitePath = "data/covermatch.db"

// NewSQLiteStore opens (creating if needed) a SQLite catalogue
func NewSQLiteStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = DefaultSQLitePath
	}

	dir := filepath.Dir(dsn)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes writers and keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := runMigrations(db, migrations.SQLite, "sqlite"); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLStore{db: db, dialect: "sqlite"}, nil
}
