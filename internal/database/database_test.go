package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := New(context.Background(), &Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "bakery.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func countProducts(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, "SELECT count(*) FROM products"))
	return n
}

func TestNewCreatesSchema(t *testing.T) {
	db := newTestDB(t)

	var tables []string
	require.NoError(t, db.Select(&tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('products', 'sales') ORDER BY name"))
	assert.Equal(t, []string{"products", "sales"}, tables)

	// Applying twice is harmless.
	require.NoError(t, ApplySchema(context.Background(), db))
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(context.Background(), &Config{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)

	_, err = New(context.Background(), &Config{Driver: DriverSQLite})
	assert.Error(t, err)
}

func TestRunInTxCommits(t *testing.T) {
	db := newTestDB(t)
	tr := NewTransactor(db)

	err := tr.RunInTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec("INSERT INTO products (name, price, quantity) VALUES ('Baguette', 1.2, 4)")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countProducts(t, db))
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	tr := NewTransactor(db)
	boom := errors.New("boom")

	err := tr.RunInTx(context.Background(), func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("INSERT INTO products (name, price, quantity) VALUES ('Baguette', 1.2, 4)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countProducts(t, db))
}

func TestRunInTxRollsBackOnPanic(t *testing.T) {
	db := newTestDB(t)
	tr := NewTransactor(db)

	assert.Panics(t, func() {
		_ = tr.RunInTx(context.Background(), func(tx *sqlx.Tx) error {
			_, _ = tx.Exec("INSERT INTO products (name, price, quantity) VALUES ('Baguette', 1.2, 4)")
			panic("half-done")
		})
	})
	assert.Equal(t, 0, countProducts(t, db))
}

func TestSyncSequencesIsNoopOnSQLite(t *testing.T) {
	db := newTestDB(t)
	tr := NewTransactor(db)

	err := tr.RunInTx(context.Background(), func(tx *sqlx.Tx) error {
		return SyncSequences(context.Background(), tx, "products", "sales")
	})
	assert.NoError(t, err)
}
