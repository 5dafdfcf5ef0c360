package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", NewValidation("price", "must not be negative"), "invalid price: must not be negative"},
		{"not found", NewNotFound("product", 4), "product 4 not found"},
		{"product not found", &ProductNotFoundError{ProductID: 9}, "product 9 not found"},
		{
			"insufficient stock",
			&InsufficientStockError{ProductID: 1, Name: "Croissant", Requested: 8, Available: 7},
			"not enough stock for Croissant: requested 8, available 7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("record sale: %w", &InsufficientStockError{Requested: 3, Available: 1})

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 1, stockErr.Available)

	var notFound *NotFoundError
	assert.False(t, errors.As(err, &notFound))
}
