package dto

type RecordSaleInput struct {
	ProductID int64
	Quantity  int
}
