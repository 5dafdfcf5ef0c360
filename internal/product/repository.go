package product

import (
	"context"

	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id int64) error

	// DecrementStock removes qty units only if at least qty are on hand.
	// It reports false when the guard rejected the update.
	DecrementStock(ctx context.Context, id int64, qty int) (bool, error)

	// Restore inserts a product keeping its id, for loading a dump.
	Restore(ctx context.Context, product *model.Product) error

	// WithTx returns a repository bound to tx.
	WithTx(tx *sqlx.Tx) Repository
}
