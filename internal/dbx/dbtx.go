// Package dbx provides the small DB abstractions shared by repositories:
// an interface satisfied by both *sqlx.DB and *sqlx.Tx, and a helper that runs
// a function inside a transaction.
package dbx

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// DBTX is what repositories query through. Both *sqlx.DB and *sqlx.Tx
// satisfy it, so sqlx.GetContext/SelectContext work with either.
type DBTX interface {
	sqlx.ExtContext
}

// ReadOnlySnapshot is the isolation used for multi-statement reads that must
// agree with each other, such as a page and its total count.
var ReadOnlySnapshot = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, dbx.ReadOnlySnapshot, func(ctx context.Context, tx dbx.DBTX) error {
//	    return sqlx.GetContext(ctx, tx, &total, "SELECT COUNT(*) FROM accounts")
//	})
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
