package product

import (
	"context"

	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product/dto"
)

type UseCase interface {
	AddProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}
