package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Transactor runs a unit of work: fn's writes commit together or not at all.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type SQLTransactor struct {
	DB *sqlx.DB
}

func NewTransactor(db *sqlx.DB) *SQLTransactor {
	return &SQLTransactor{DB: db}
}

// RunInTx begins a transaction, hands it to fn and commits when fn returns nil.
// Any error or panic from fn rolls the transaction back.
func (t *SQLTransactor) RunInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := t.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SyncSequences moves PostgreSQL id sequences past rows inserted with explicit ids.
// SQLite tracks AUTOINCREMENT high-water marks itself, so nothing is done there.
func SyncSequences(ctx context.Context, tx *sqlx.Tx, tables ...string) error {
	if !isPostgres(tx.DriverName()) {
		return nil
	}
	for _, table := range tables {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table,
		)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync %s sequence: %w", table, err)
		}
	}
	return nil
}
