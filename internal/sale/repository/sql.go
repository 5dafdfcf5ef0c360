package repository

import (
	"context"

	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/sale"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB sqlx.ExtContext
}

func NewSQLRepository(db sqlx.ExtContext) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) WithTx(tx *sqlx.Tx) sale.Repository {
	return &SQLRepository{DB: tx}
}

func (r *SQLRepository) Create(ctx context.Context, s *model.Sale) error {
	query := r.DB.Rebind(`
        INSERT INTO sales (product_id, quantity, total_price, date)
        VALUES (?, ?, ?, ?)
        RETURNING id
    `)
	return sqlx.GetContext(ctx, r.DB, &s.ID, query, s.ProductID, s.Quantity, s.TotalPrice, s.Date)
}

func (r *SQLRepository) Restore(ctx context.Context, s *model.Sale) error {
	query := `
        INSERT INTO sales (id, product_id, quantity, total_price, date)
        VALUES (:id, :product_id, :quantity, :total_price, :date)
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, s)
	return err
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]model.Sale, error) {
	sales := []model.Sale{}
	query := `SELECT id, product_id, quantity, total_price, date FROM sales ORDER BY id`
	if err := sqlx.SelectContext(ctx, r.DB, &sales, query); err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Date = sales[i].Date.UTC()
	}
	return sales, nil
}

func (r *SQLRepository) FindAllWithProduct(ctx context.Context) ([]model.SaleView, error) {
	views := []model.SaleView{}
	query := `
        SELECT s.id, s.product_id, s.quantity, s.total_price, s.date, p.name AS product_name
        FROM sales s
        JOIN products p ON p.id = s.product_id
        ORDER BY s.id
    `
	if err := sqlx.SelectContext(ctx, r.DB, &views, query); err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Date = views[i].Date.UTC()
	}
	return views, nil
}
