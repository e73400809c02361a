package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/userhub/internal/client/migrations"
	"github.com/dmitrijs2005/userhub/internal/filex"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db.DB, ".")
}

// InitDatabase opens the local SQLite session database, creating its
// directory if needed, and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, err
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
