package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/bakery-ledger/internal/apperror"
	"github.com/fekuna/bakery-ledger/internal/database"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product"
	"github.com/fekuna/bakery-ledger/internal/sale"
	"github.com/fekuna/bakery-ledger/internal/sale/dto"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type saleUseCase struct {
	repo     sale.Repository
	products product.Repository
	tx       database.Transactor
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewSaleUseCase(repo sale.Repository, products product.Repository, tx database.Transactor, log logger.ZapLogger) sale.UseCase {
	return &saleUseCase{
		repo:     repo,
		products: products,
		tx:       tx,
		logger:   log,
		now:      defaultClock,
	}
}

// Timestamps are kept at microsecond precision so they survive PostgreSQL unchanged.
func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// RecordSale checks stock, prices the sale, decrements inventory and appends the sale
// in a single transaction. On any error nothing is written.
func (uc *saleUseCase) RecordSale(ctx context.Context, input *dto.RecordSaleInput) (*model.Sale, error) {
	var recorded *model.Sale
	var productName string

	err := uc.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		products := uc.products.WithTx(tx)
		sales := uc.repo.WithTx(tx)

		// 1. Load product
		p, err := products.FindByID(ctx, input.ProductID)
		if err != nil {
			return fmt.Errorf("find product %d: %w", input.ProductID, err)
		}
		if p == nil {
			return &apperror.ProductNotFoundError{ProductID: input.ProductID}
		}
		productName = p.Name

		// 2. Validate request against stock
		if input.Quantity <= 0 {
			return apperror.NewValidation("quantity", "must be positive")
		}
		if input.Quantity > p.Quantity {
			return &apperror.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: input.Quantity,
				Available: p.Quantity,
			}
		}

		total := p.Price.Mul(decimal.NewFromInt(int64(input.Quantity)))

		// 3. Decrement stock, guarded so it can never go negative
		ok, err := products.DecrementStock(ctx, p.ID, input.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock for product %d: %w", p.ID, err)
		}
		if !ok {
			available := 0
			if current, err := products.FindByID(ctx, p.ID); err == nil && current != nil {
				available = current.Quantity
			}
			return &apperror.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: input.Quantity,
				Available: available,
			}
		}

		// 4. Append sale
		s := &model.Sale{
			ProductID:  p.ID,
			Quantity:   input.Quantity,
			TotalPrice: total,
			Date:       uc.now(),
		}
		if err := sales.Create(ctx, s); err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		recorded = s
		return nil
	})
	if err != nil {
		uc.logRejection(input, err)
		return nil, err
	}

	uc.logger.Info("sale recorded",
		zap.Int64("sale_id", recorded.ID),
		zap.Int64("product_id", recorded.ProductID),
		zap.String("product_name", productName),
		zap.Int("quantity", recorded.Quantity),
		zap.String("total_price", recorded.TotalPrice.StringFixed(2)),
	)
	return recorded, nil
}

func (uc *saleUseCase) ListSales(ctx context.Context) ([]model.SaleView, error) {
	views, err := uc.repo.FindAllWithProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return views, nil
}

func (uc *saleUseCase) logRejection(input *dto.RecordSaleInput, err error) {
	fields := []zap.Field{
		zap.Int64("product_id", input.ProductID),
		zap.Int("quantity", input.Quantity),
		zap.Error(err),
	}

	var (
		validation *apperror.ValidationError
		missing    *apperror.ProductNotFoundError
		stock      *apperror.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &missing), errors.As(err, &stock):
		uc.logger.Warn("sale rejected", fields...)
	default:
		uc.logger.Error("failed to record sale", fields...)
	}
}
