package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB sqlx.ExtContext
}

func NewSQLRepository(db sqlx.ExtContext) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) WithTx(tx *sqlx.Tx) product.Repository {
	return &SQLRepository{DB: tx}
}

func (r *SQLRepository) Create(ctx context.Context, p *model.Product) error {
	query := r.DB.Rebind(`
        INSERT INTO products (name, price, quantity)
        VALUES (?, ?, ?)
        RETURNING id
    `)
	return sqlx.GetContext(ctx, r.DB, &p.ID, query, p.Name, p.Price, p.Quantity)
}

func (r *SQLRepository) Restore(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (id, name, price, quantity)
        VALUES (:id, :name, :price, :quantity)
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, p)
	return err
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	query := r.DB.Rebind(`SELECT id, name, price, quantity FROM products WHERE id = ?`)
	err := sqlx.GetContext(ctx, r.DB, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	err := sqlx.SelectContext(ctx, r.DB, &products, `SELECT id, name, price, quantity FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *SQLRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET name = :name,
            price = :price,
            quantity = :quantity
        WHERE id = :id
    `
	_, err := sqlx.NamedExecContext(ctx, r.DB, query, p)
	return err
}

func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind("DELETE FROM products WHERE id = ?"), id)
	return err
}

func (r *SQLRepository) DecrementStock(ctx context.Context, id int64, qty int) (bool, error) {
	query := r.DB.Rebind(`
        UPDATE products
        SET quantity = quantity - ?
        WHERE id = ? AND quantity >= ?
    `)
	res, err := r.DB.ExecContext(ctx, query, qty, id, qty)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
