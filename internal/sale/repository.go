package sale

import (
	"context"

	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, sale *model.Sale) error

	// FindAll returns every sale row, including sales of deleted products.
	FindAll(ctx context.Context) ([]model.Sale, error)

	// FindAllWithProduct returns sales joined to their product's name. Sales whose
	// product no longer exists are not returned.
	FindAllWithProduct(ctx context.Context) ([]model.SaleView, error)

	// Restore inserts a sale keeping its id and date, for loading a dump.
	Restore(ctx context.Context, sale *model.Sale) error

	WithTx(tx *sqlx.Tx) Repository
}
