package sale

import (
	"context"

	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/sale/dto"
)

type UseCase interface {
	RecordSale(ctx context.Context, input *dto.RecordSaleInput) (*model.Sale, error)
	ListSales(ctx context.Context) ([]model.SaleView, error)
}
