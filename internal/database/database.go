// Package database opens the ledger's single storage handle and creates its schema.
//
// Three drivers are supported: the embedded SQLite store (sqlite3, the default) and
// PostgreSQL through either lib/pq (postgres) or pgx (pgx). Queries are written with
// '?' placeholders and rebound by sqlx for the dollar-style drivers.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

// sqliteParams keeps foreign keys off so deleting a sold product leaves its sales in place,
// and opens every transaction with BEGIN IMMEDIATE so the stock check holds the write lock.
const sqliteParams = "_busy_timeout=5000&_foreign_keys=off&_txlock=immediate&_loc=UTC"

type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// New opens the database, verifies the connection and ensures the tables exist.
func New(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	dsn := cfg.DSN
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite database path is empty")
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?" + sqliteParams
		}
	case DriverPostgres, DriverPgx:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// One writer; all units of work queue on the single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := ApplySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// ApplySchema creates the products and sales tables when they are missing.
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaFor(db.DriverName()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func isPostgres(driverName string) bool {
	return driverName == DriverPostgres || driverName == DriverPgx
}

func schemaFor(driverName string) []string {
	if isPostgres(driverName) {
		return postgresSchema
	}
	return sqliteSchema
}

// AUTOINCREMENT keeps SQLite from handing out the id of a deleted row again.
// Money is stored as decimal text; REAL would round beyond 15 significant digits.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        price TEXT NOT NULL,
        quantity INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS sales (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        product_id INTEGER NOT NULL REFERENCES products (id),
        quantity INTEGER NOT NULL,
        total_price TEXT NOT NULL,
        date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
}

// product_id carries no constraint here: sales outlive the products they reference.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        price NUMERIC NOT NULL,
        quantity INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS sales (
        id BIGSERIAL PRIMARY KEY,
        product_id BIGINT NOT NULL,
        quantity INTEGER NOT NULL,
        total_price NUMERIC NOT NULL,
        date TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
}
