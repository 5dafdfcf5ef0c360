package main

import (
	"context"
	"time"

	"github.com/fekuna/bakery-ledger/config"
	"github.com/fekuna/bakery-ledger/internal/database"
	"github.com/fekuna/bakery-ledger/internal/export"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/fekuna/bakery-ledger/internal/snapshot"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	prodH "github.com/fekuna/bakery-ledger/internal/product/handler"
	prodRepoPkg "github.com/fekuna/bakery-ledger/internal/product/repository"
	prodUCPkg "github.com/fekuna/bakery-ledger/internal/product/usecase"

	saleH "github.com/fekuna/bakery-ledger/internal/sale/handler"
	saleRepoPkg "github.com/fekuna/bakery-ledger/internal/sale/repository"
	saleUCPkg "github.com/fekuna/bakery-ledger/internal/sale/usecase"
)

// app holds everything a subcommand needs once the store is open.
type app struct {
	cfg    *config.Config
	logger logger.ZapLogger

	db       *sqlx.DB
	products *prodH.ProductHandler
	sales    *saleH.SaleHandler
	exporter *export.Exporter
}

func newApp(cfg *config.Config, log logger.ZapLogger) *app {
	return &app{cfg: cfg, logger: log}
}

// execute runs the command tree and releases the store afterwards, whether or not
// the command failed.
func (a *app) execute(ctx context.Context, root *cobra.Command) (err error) {
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	cfg := a.cfg

	root := &cobra.Command{
		Use:   "bakery",
		Short: "Bakery inventory and sales ledger",
		Long: `Keep a bakery's product catalog and its sales ledger.

Recording a sale checks stock, prices the sale from the current product price and
decrements inventory in one step; a rejected sale changes nothing.

Examples:
  bakery product add --name Croissant --price 2.50 --quantity 10
  bakery sale record 1 3
  bakery sale list
  bakery export --file backup.yaml`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}

	root.PersistentFlags().StringVar(&cfg.Database.SQLitePath, "db", cfg.Database.SQLitePath, "Path of the SQLite database file")
	root.PersistentFlags().StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "Database driver (sqlite3, postgres, pgx)")

	root.AddCommand(newProductCommand(a))
	root.AddCommand(newSaleCommand(a))
	root.AddCommand(newExportCommand(a))
	root.AddCommand(newImportCommand(a))
	root.AddCommand(newInspectCommand(a))
	return root
}

// open connects to the store and wires repositories, use cases and handlers.
func (a *app) open(cmd *cobra.Command, _ []string) error {
	if a.db != nil {
		return nil
	}
	dbCfg := a.cfg.Database

	db, err := database.New(cmd.Context(), &database.Config{
		Driver:          dbCfg.Driver,
		DSN:             dbCfg.DSN(),
		MaxOpenConns:    dbCfg.MaxOpenConns,
		MaxIdleConns:    dbCfg.MaxIdleConns,
		ConnMaxLifetime: time.Duration(dbCfg.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(dbCfg.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		a.logger.Error("could not open database", zap.String("driver", dbCfg.Driver), zap.Error(err))
		return err
	}
	a.db = db
	a.logger.Debug("database opened", zap.String("driver", dbCfg.Driver))

	// Repositories
	prodRepo := prodRepoPkg.NewSQLRepository(db)
	saleRepo := saleRepoPkg.NewSQLRepository(db)
	tx := database.NewTransactor(db)

	// UseCases
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, tx, a.logger)
	saleUC := saleUCPkg.NewSaleUseCase(saleRepo, prodRepo, tx, a.logger)

	// Handlers
	out := cmd.OutOrStdout()
	a.products = prodH.NewProductHandler(prodUC, a.logger, out)
	a.sales = saleH.NewSaleHandler(saleUC, a.logger, out)
	a.exporter = export.NewExporter(snapshot.NewStore(prodRepo, saleRepo, tx, a.logger), a.logger)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
