package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/sale"
	"github.com/fekuna/bakery-ledger/internal/sale/dto"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02 15:04:05"

type SaleHandler struct {
	uc     sale.UseCase
	logger logger.ZapLogger
	out    io.Writer
}

func NewSaleHandler(uc sale.UseCase, log logger.ZapLogger, out io.Writer) *SaleHandler {
	return &SaleHandler{
		uc:     uc,
		logger: log,
		out:    out,
	}
}

func (h *SaleHandler) RecordSale(ctx context.Context, productID int64, quantity int) error {
	s, err := h.uc.RecordSale(ctx, &dto.RecordSaleInput{
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return err
	}

	h.logger.Debug("sale command finished", zap.Int64("sale_id", s.ID))
	fmt.Fprintf(h.out, "Sale recorded. ID: %d, Product ID: %d, Quantity: %d, Total Price: $%s\n",
		s.ID, s.ProductID, s.Quantity, s.TotalPrice.StringFixed(2))
	return nil
}

func (h *SaleHandler) ListSales(ctx context.Context) error {
	views, err := h.uc.ListSales(ctx)
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(h.out, "No sales found.")
		return nil
	}
	for i := range views {
		fmt.Fprintln(h.out, FormatSale(&views[i]))
	}
	return nil
}

func FormatSale(v *model.SaleView) string {
	return fmt.Sprintf("ID: %d, Product: %s, Quantity: %d, Total Price: $%s, Date: %s",
		v.ID, v.ProductName, v.Quantity, v.TotalPrice.StringFixed(2), v.Date.UTC().Format(dateLayout))
}
