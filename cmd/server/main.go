package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"stockbook/internal/adapters/web"
	"stockbook/internal/app"
	"stockbook/internal/config"
	"stockbook/internal/core"
	"stockbook/internal/db"
	"stockbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		baseLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	ledger := core.NewLedger(pool)
	stockSvc := core.NewStockService(pool, ledger)
	loanSvc := core.NewLoanService(pool, ledger)
	networkSvc := core.NewNetworkService(pool)
	productSvc := core.NewProductService(pool)
	consultantSvc := core.NewConsultantService(pool, cfg.Inventory.DefaultHomeLocation)

	svc := app.NewService(stockSvc, loanSvc, networkSvc, productSvc, consultantSvc, ledger)
	handler := web.NewHandler(svc, logger.Named(baseLogger, "web"), cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	baseLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
