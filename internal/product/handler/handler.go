package handler

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fekuna/bakery-ledger/internal/apperror"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product"
	"github.com/fekuna/bakery-ledger/internal/product/dto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddProductRequest carries the raw command line values for a new product.
type AddProductRequest struct {
	Name     string
	Price    string
	Quantity int
}

// UpdateProductRequest leaves a field untouched when its pointer is nil.
type UpdateProductRequest struct {
	ID       int64
	Name     *string
	Price    *string
	Quantity *int
}

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
	out    io.Writer
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger, out io.Writer) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
		out:    out,
	}
}

func (h *ProductHandler) AddProduct(ctx context.Context, req *AddProductRequest) error {
	price, err := parsePrice(req.Price)
	if err != nil {
		return err
	}

	p, err := h.uc.AddProduct(ctx, &dto.CreateProductInput{
		Name:     req.Name,
		Price:    price,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(h.out, "Product added. %s\n", FormatProduct(p))
	return nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, id int64) error {
	p, err := h.uc.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(h.out, FormatProduct(p))
	return nil
}

func (h *ProductHandler) ListProducts(ctx context.Context) error {
	products, err := h.uc.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(h.out, "No products found.")
		return nil
	}
	for i := range products {
		fmt.Fprintln(h.out, FormatProduct(&products[i]))
	}
	return nil
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *UpdateProductRequest) error {
	input := &dto.UpdateProductInput{
		ID:       req.ID,
		Name:     req.Name,
		Quantity: req.Quantity,
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			return err
		}
		input.Price = &price
	}

	p, err := h.uc.UpdateProduct(ctx, input)
	if err != nil {
		return err
	}

	fmt.Fprintf(h.out, "Product updated. %s\n", FormatProduct(p))
	return nil
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, id int64) error {
	if err := h.uc.DeleteProduct(ctx, id); err != nil {
		return err
	}
	h.logger.Debug("delete command finished", zap.Int64("product_id", id))
	fmt.Fprintf(h.out, "Product %d deleted.\n", id)
	return nil
}

// FormatProduct renders a product as one line, prices with two decimals.
func FormatProduct(p *model.Product) string {
	return fmt.Sprintf("ID: %d, Name: %s, Price: $%s, Quantity: %d",
		p.ID, p.Name, p.Price.StringFixed(2), p.Quantity)
}

func parsePrice(s string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, apperror.NewValidation("price", fmt.Sprintf("%q is not a number", s))
	}
	return price, nil
}
