package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/bakery-ledger/internal/apperror"
	"github.com/fekuna/bakery-ledger/internal/database"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/model"
	"github.com/fekuna/bakery-ledger/internal/product"
	productRepo "github.com/fekuna/bakery-ledger/internal/product/repository"
	"github.com/fekuna/bakery-ledger/internal/sale"
	"github.com/fekuna/bakery-ledger/internal/sale/dto"
	saleRepo "github.com/fekuna/bakery-ledger/internal/sale/repository"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	db       *sqlx.DB
	products product.Repository
	sales    sale.Repository
	uc       *saleUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(context.Background(), &database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "bakery.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		products: productRepo.NewSQLRepository(db),
		sales:    saleRepo.NewSQLRepository(db),
	}
	f.uc = NewSaleUseCase(f.sales, f.products, database.NewTransactor(db), logger.Wrap(zaptest.NewLogger(t))).(*saleUseCase)
	return f
}

func (f *fixture) addProduct(t *testing.T, name, price string, qty int) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Price: decimal.RequireFromString(price), Quantity: qty}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func (f *fixture) quantity(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

func (f *fixture) saleCount(t *testing.T) int {
	t.Helper()
	all, err := f.sales.FindAll(context.Background())
	require.NoError(t, err)
	return len(all)
}

func TestCroissantScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	croissant := f.addProduct(t, "Croissant", "2.50", 10)
	require.Equal(t, int64(1), croissant.ID)

	s, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: 1, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Quantity)
	assert.Equal(t, "7.50", s.TotalPrice.StringFixed(2))
	assert.Equal(t, 7, f.quantity(t, 1))

	_, err = f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: 1, Quantity: 8})
	var stock *apperror.InsufficientStockError
	require.True(t, errors.As(err, &stock), "got %v", err)
	assert.Equal(t, 7, stock.Available)
	assert.Equal(t, 8, stock.Requested)
	assert.Equal(t, "Croissant", stock.Name)
	assert.Equal(t, 7, f.quantity(t, 1))
	assert.Equal(t, 1, f.saleCount(t))
}

func TestRecordSaleListsJoinedView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	at := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)
	f.uc.now = func() time.Time { return at }

	baguette := f.addProduct(t, "Baguette", "1.20", 30)
	eclair := f.addProduct(t, "Eclair", "3.35", 4)

	first, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: baguette.ID, Quantity: 5})
	require.NoError(t, err)
	second, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: eclair.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	views, err := f.uc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, "Baguette", views[0].ProductName)
	assert.True(t, views[0].TotalPrice.Equal(decimal.RequireFromString("6")), "total %s", views[0].TotalPrice)
	assert.True(t, views[0].Date.Equal(at), "date %s", views[0].Date)

	assert.Equal(t, "Eclair", views[1].ProductName)
	assert.True(t, views[1].TotalPrice.Equal(decimal.RequireFromString("13.40")))
	assert.Equal(t, 0, f.quantity(t, eclair.ID))
}

func TestRecordSaleRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.addProduct(t, "Croissant", "2.50", 10)

	t.Run("missing product", func(t *testing.T) {
		_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: 77, Quantity: 1})
		var missing *apperror.ProductNotFoundError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, int64(77), missing.ProductID)
	})

	t.Run("missing product wins over bad quantity", func(t *testing.T) {
		_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: 77, Quantity: 0})
		var missing *apperror.ProductNotFoundError
		assert.True(t, errors.As(err, &missing))
	})

	for _, qty := range []int{0, -3} {
		_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: qty})
		var verr *apperror.ValidationError
		require.True(t, errors.As(err, &verr), "quantity %d: %v", qty, err)
		assert.Equal(t, "quantity", verr.Field)
	}

	t.Run("oversell", func(t *testing.T) {
		_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: 11})
		var stock *apperror.InsufficientStockError
		require.True(t, errors.As(err, &stock))
		assert.Equal(t, 10, stock.Available)
	})

	assert.Equal(t, 10, f.quantity(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestSellEntireStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.addProduct(t, "Macaron", "1.10", 6)

	_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, 0, f.quantity(t, p.ID))

	_, err = f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: 1})
	var stock *apperror.InsufficientStockError
	require.True(t, errors.As(err, &stock))
	assert.Equal(t, 0, stock.Available)
}

func TestTotalIsFrozenAtSaleTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.addProduct(t, "Croissant", "2.50", 10)

	_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	p.Price = decimal.RequireFromString("9.99")
	p.Quantity = 8
	require.NoError(t, f.products.Update(ctx, p))

	views, err := f.uc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "5.00", views[0].TotalPrice.StringFixed(2))
}

func TestOrphanedSalesDropOutOfView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	gone := f.addProduct(t, "Seasonal Stollen", "12", 3)
	kept := f.addProduct(t, "Baguette", "1.20", 30)

	_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: gone.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: kept.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, gone.ID))

	views, err := f.uc.ListSales(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Baguette", views[0].ProductName)

	// The row itself is still in the ledger.
	assert.Equal(t, 2, f.saleCount(t))
}

type failingSales struct {
	sale.Repository
}

func (r failingSales) Create(context.Context, *model.Sale) error {
	return errors.New("disk full")
}

func (r failingSales) WithTx(*sqlx.Tx) sale.Repository {
	return r
}

func TestFailedInsertRollsBackStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.addProduct(t, "Croissant", "2.50", 10)

	uc := NewSaleUseCase(failingSales{f.sales}, f.products, database.NewTransactor(f.db), logger.NewNop())

	_, err := uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: 4})
	require.ErrorContains(t, err, "disk full")

	assert.Equal(t, 10, f.quantity(t, p.ID))
	assert.Equal(t, 0, f.saleCount(t))
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.addProduct(t, "Croissant", "2.50", 10)

	const buyers = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		sold     int
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.RecordSale(ctx, &dto.RecordSaleInput{ProductID: p.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			var stock *apperror.InsufficientStockError
			switch {
			case err == nil:
				sold++
			case errors.As(err, &stock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, sold)
	assert.Equal(t, buyers-10, rejected)
	assert.Equal(t, 0, f.quantity(t, p.ID))
	assert.Equal(t, 10, f.saleCount(t))
}
