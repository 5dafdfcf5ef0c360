// Package snapshot exposes the whole store as plain rows, and loads such rows back.
//
// A dump maps each table name to its rows in id order; each row maps a column name
// to its value. Restore accepts the loosely typed values produced by decoding a dump
// from JSON or YAML (float64 ids, string decimals, RFC 3339 timestamps).
package snapshot

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fekuna/bakery-ledger/internal/apperror"
	"github.com/fekuna/bakery-ledger/internal/database"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product"
	"github.com/fekuna/bakery-ledger/internal/sale"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	TableProducts = "products"
	TableSales    = "sales"
)

// TableOrder is the order tables are written and restored in.
var TableOrder = []string{TableProducts, TableSales}

type Row map[string]any

type Tables map[string][]Row

type Store struct {
	products product.Repository
	sales    sale.Repository
	tx       database.Transactor
	logger   logger.ZapLogger
}

func NewStore(products product.Repository, sales sale.Repository, tx database.Transactor, log logger.ZapLogger) *Store {
	return &Store{
		products: products,
		sales:    sales,
		tx:       tx,
		logger:   log,
	}
}

// Dump reads every table inside one transaction so the rows are mutually consistent.
func (s *Store) Dump(ctx context.Context) (Tables, error) {
	tables := Tables{}
	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		products, err := s.products.WithTx(tx).FindAll(ctx)
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
		sales, err := s.sales.WithTx(tx).FindAll(ctx)
		if err != nil {
			return fmt.Errorf("read sales: %w", err)
		}

		productRows := make([]Row, 0, len(products))
		for _, p := range products {
			productRows = append(productRows, productToRow(p))
		}
		saleRows := make([]Row, 0, len(sales))
		for _, sl := range sales {
			saleRows = append(saleRows, saleToRow(sl))
		}
		tables[TableProducts] = productRows
		tables[TableSales] = saleRows
		return nil
	})
	if err != nil {
		s.logger.Error("failed to dump store", zap.Error(err))
		return nil, err
	}
	return tables, nil
}

// Restore loads tables into an empty store, keeping every id. It refuses to merge into
// a store that already holds rows.
func (s *Store) Restore(ctx context.Context, tables Tables) error {
	for name := range tables {
		if name != TableProducts && name != TableSales {
			return apperror.NewValidation("table", fmt.Sprintf("unknown table %q", name))
		}
	}

	products := make([]*model.Product, 0, len(tables[TableProducts]))
	for i, row := range tables[TableProducts] {
		p, err := rowToProduct(row)
		if err != nil {
			return fmt.Errorf("products row %d: %w", i, err)
		}
		products = append(products, p)
	}
	sales := make([]*model.Sale, 0, len(tables[TableSales]))
	for i, row := range tables[TableSales] {
		sl, err := rowToSale(row)
		if err != nil {
			return fmt.Errorf("sales row %d: %w", i, err)
		}
		sales = append(sales, sl)
	}

	err := s.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		productRepo := s.products.WithTx(tx)
		saleRepo := s.sales.WithTx(tx)

		existingProducts, err := productRepo.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("read products: %w", err)
		}
		existingSales, err := saleRepo.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("read sales: %w", err)
		}
		if len(existingProducts) > 0 || len(existingSales) > 0 {
			return apperror.NewValidation("store", "restore target must be empty")
		}

		for _, p := range products {
			if err := productRepo.Restore(ctx, p); err != nil {
				return fmt.Errorf("restore product %d: %w", p.ID, err)
			}
		}
		for _, sl := range sales {
			if err := saleRepo.Restore(ctx, sl); err != nil {
				return fmt.Errorf("restore sale %d: %w", sl.ID, err)
			}
		}
		return database.SyncSequences(ctx, tx, TableOrder...)
	})
	if err != nil {
		s.logger.Error("failed to restore store", zap.Error(err))
		return err
	}

	s.logger.Info("store restored", zap.Int("products", len(products)), zap.Int("sales", len(sales)))
	return nil
}

func productToRow(p model.Product) Row {
	return Row{
		"id":       p.ID,
		"name":     p.Name,
		"price":    p.Price.InexactFloat64(),
		"quantity": p.Quantity,
	}
}

func saleToRow(s model.Sale) Row {
	return Row{
		"id":          s.ID,
		"product_id":  s.ProductID,
		"quantity":    s.Quantity,
		"total_price": s.TotalPrice.InexactFloat64(),
		"date":        s.Date.UTC(),
	}
}

func rowToProduct(row Row) (*model.Product, error) {
	var (
		p   model.Product
		err error
	)
	if p.ID, err = int64Field(row, "id"); err != nil {
		return nil, err
	}
	if p.Name, err = stringField(row, "name"); err != nil {
		return nil, err
	}
	if p.Price, err = decimalField(row, "price"); err != nil {
		return nil, err
	}
	if p.Quantity, err = intField(row, "quantity"); err != nil {
		return nil, err
	}
	if err := validateProduct(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func rowToSale(row Row) (*model.Sale, error) {
	var (
		s   model.Sale
		err error
	)
	if s.ID, err = int64Field(row, "id"); err != nil {
		return nil, err
	}
	if s.ProductID, err = int64Field(row, "product_id"); err != nil {
		return nil, err
	}
	if s.Quantity, err = intField(row, "quantity"); err != nil {
		return nil, err
	}
	if s.TotalPrice, err = decimalField(row, "total_price"); err != nil {
		return nil, err
	}
	if s.Date, err = timeField(row, "date"); err != nil {
		return nil, err
	}
	if err := validateSale(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Restored rows obey the same rules as rows written by the catalog and the ledger.
func validateProduct(p *model.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperror.NewValidation("name", "must not be blank")
	case p.Price.IsNegative():
		return apperror.NewValidation("price", "must not be negative")
	case p.Quantity < 0:
		return apperror.NewValidation("quantity", "must not be negative")
	}
	return nil
}

func validateSale(s *model.Sale) error {
	switch {
	case s.Quantity <= 0:
		return apperror.NewValidation("quantity", "must be positive")
	case s.TotalPrice.IsNegative():
		return apperror.NewValidation("total_price", "must not be negative")
	}
	return nil
}

func field(row Row, name string) (any, error) {
	v, ok := row[name]
	if !ok || v == nil {
		return nil, apperror.NewValidation(name, "missing")
	}
	return v, nil
}

func int64Field(row Row, name string) (int64, error) {
	v, err := field(row, name)
	if err != nil {
		return 0, err
	}
	switch f := v.(type) {
	case float64:
		if f != math.Trunc(f) {
			return 0, apperror.NewValidation(name, fmt.Sprintf("%v is not a whole number", f))
		}
	case float32:
		if float64(f) != math.Trunc(float64(f)) {
			return 0, apperror.NewValidation(name, fmt.Sprintf("%v is not a whole number", f))
		}
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, apperror.NewValidation(name, err.Error())
	}
	return n, nil
}

func intField(row Row, name string) (int, error) {
	n, err := int64Field(row, name)
	return int(n), err
}

func stringField(row Row, name string) (string, error) {
	v, err := field(row, name)
	if err != nil {
		return "", err
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return "", apperror.NewValidation(name, err.Error())
	}
	return str, nil
}

func decimalField(row Row, name string) (decimal.Decimal, error) {
	v, err := field(row, name)
	if err != nil {
		return decimal.Zero, err
	}
	if d, ok := v.(decimal.Decimal); ok {
		return d, nil
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, apperror.NewValidation(name, err.Error())
	}
	d, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero, apperror.NewValidation(name, err.Error())
	}
	return d, nil
}

func timeField(row Row, name string) (time.Time, error) {
	v, err := field(row, name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, apperror.NewValidation(name, err.Error())
	}
	return t.UTC(), nil
}
