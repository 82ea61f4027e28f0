package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"nextshoptx/internal/config"
	"nextshoptx/internal/db"
	"nextshoptx/internal/gateway"
	"nextshoptx/internal/services"
	"nextshoptx/internal/store"
	"nextshoptx/internal/worker"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	st := store.New(pool)
	gw := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.GatewayTimeout())
	refunds := &services.RefundCoordinator{
		Payments: st,
		Orders:   st,
		Gateway:  gw,
		Log:      logger,
	}
	paymentSvc := &services.PaymentService{
		Orders:   st,
		Payments: st,
		Refunds:  refunds,
		Signer:   gateway.Signer{Secret: cfg.Gateway.KeySecret},
		Log:      logger,
	}

	w := &worker.Worker{
		Store:          st,
		Gateway:        gw,
		Payments:       paymentSvc,
		Currency:       cfg.Gateway.Currency,
		Interval:       cfg.SweepInterval(),
		Concurrency:    cfg.Worker.Concurrency,
		RecoverOrphans: cfg.Worker.RecoverOrphans,
		OrphanPageSize: cfg.Worker.OrphanPageSize,
		Log:            logger,
	}

	logger.Info("reconciliation worker started",
		zap.Duration("interval", cfg.SweepInterval()),
		zap.Int("concurrency", cfg.Worker.Concurrency))
	w.Run(ctx)
}
