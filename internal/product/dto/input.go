package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// UpdateProductInput changes only the fields that are non-nil.
// An empty Name is a value to validate, not "no change".
type UpdateProductInput struct {
	ID       int64
	Name     *string
	Price    *decimal.Decimal
	Quantity *int
}
