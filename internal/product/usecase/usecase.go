package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/bakery-ledger/internal/apperror"
	"github.com/fekuna/bakery-ledger/internal/database"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product"
	"github.com/fekuna/bakery-ledger/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo   product.Repository
	tx     database.Transactor
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, tx database.Transactor, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		tx:     tx,
		logger: log,
	}
}

func (uc *productUseCase) AddProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	p := &model.Product{
		Name:     name,
		Price:    input.Price,
		Quantity: input.Quantity,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		uc.logger.Error("failed to create product", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("create product: %w", err)
	}

	uc.logger.Info("product added",
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name),
		zap.String("price", p.Price.String()),
		zap.Int("quantity", p.Quantity),
	)
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	if p == nil {
		return nil, apperror.NewNotFound("product", id)
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	var name string
	if input.Name != nil {
		n, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		name = n
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Quantity != nil {
		if err := validateQuantity(*input.Quantity); err != nil {
			return nil, err
		}
	}

	var updated *model.Product
	err := uc.tx.RunInTx(ctx, func(tx *sqlx.Tx) error {
		repo := uc.repo.WithTx(tx)

		p, err := repo.FindByID(ctx, input.ID)
		if err != nil {
			return fmt.Errorf("find product %d: %w", input.ID, err)
		}
		if p == nil {
			return apperror.NewNotFound("product", input.ID)
		}

		if input.Name != nil {
			p.Name = name
		}
		if input.Price != nil {
			p.Price = *input.Price
		}
		if input.Quantity != nil {
			p.Quantity = *input.Quantity
		}

		if err := repo.Update(ctx, p); err != nil {
			return fmt.Errorf("update product %d: %w", input.ID, err)
		}
		updated = p
		return nil
	})
	if err != nil {
		uc.logFailure("failed to update product", input.ID, err)
		return nil, err
	}

	uc.logger.Info("product updated", zap.Int64("product_id", updated.ID))
	return updated, nil
}

// DeleteProduct removes the product if it exists. Deleting an unknown id succeeds,
// and sales already recorded against the product are left untouched.
func (uc *productUseCase) DeleteProduct(ctx context.Context, id int64) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		uc.logger.Error("failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	uc.logger.Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func (uc *productUseCase) logFailure(msg string, id int64, err error) {
	var notFound *apperror.NotFoundError
	if errors.As(err, &notFound) {
		uc.logger.Warn(msg, zap.Int64("product_id", id), zap.Error(err))
		return
	}
	uc.logger.Error(msg, zap.Int64("product_id", id), zap.Error(err))
}

func validateName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", apperror.NewValidation("name", "must not be blank")
	}
	return name, nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.NewValidation("price", "must not be negative")
	}
	return nil
}

func validateQuantity(qty int) error {
	if qty < 0 {
		return apperror.NewValidation("quantity", "must not be negative")
	}
	return nil
}
