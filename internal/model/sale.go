package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is immutable once recorded. TotalPrice is frozen at the product's price
// at the moment of sale.
type Sale struct {
	ID         int64           `db:"id" json:"id"`
	ProductID  int64           `db:"product_id" json:"product_id"`
	Quantity   int             `db:"quantity" json:"quantity"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Date       time.Time       `db:"date" json:"date"`
}

// SaleView is a sale joined with the name of the product it sold.
type SaleView struct {
	Sale
	ProductName string `db:"product_name" json:"product_name"`
}
