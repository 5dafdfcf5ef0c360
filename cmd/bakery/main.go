package main

import (
	"context"
	"os"

	"github.com/fekuna/bakery-ledger/config"
	"github.com/fekuna/bakery-ledger/internal/logger"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.App.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Run the command
	a := newApp(cfg, appLogger)
	if err := a.execute(context.Background(), a.rootCommand()); err != nil {
		appLogger.Sync()
		os.Exit(1)
	}
}
