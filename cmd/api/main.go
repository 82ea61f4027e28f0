package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nextshoptx/internal/config"
	"nextshoptx/internal/db"
	"nextshoptx/internal/gateway"
	internalhttp "nextshoptx/internal/http"
	"nextshoptx/internal/notify"
	"nextshoptx/internal/services"
	"nextshoptx/internal/store"

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

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	st := store.New(pool)
	gw := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.GatewayTimeout())
	signer := gateway.Signer{Secret: cfg.Gateway.KeySecret}

	var notifier services.Notifier = notify.Noop{}
	if cfg.Mail.Enabled {
		mailer, err := notify.NewMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From, cfg.Shop.Name)
		if err != nil {
			logger.Fatal("mailer init failed", zap.Error(err))
		}
		notifier = mailer
	}

	refunds := &services.RefundCoordinator{
		Payments: st,
		Orders:   st,
		Gateway:  gw,
		Log:      logger,
	}
	orderSvc := &services.OrderService{
		Orders:   st,
		Catalog:  st,
		Gateway:  gw,
		Refunds:  refunds,
		Notify:   notifier,
		Currency: cfg.Gateway.Currency,
		ShopName: cfg.Shop.Name,
		Log:      logger,
	}
	paymentSvc := &services.PaymentService{
		Orders:   st,
		Payments: st,
		Refunds:  refunds,
		Signer:   signer,
		Log:      logger,
	}

	h := internalhttp.NewHandler(orderSvc, paymentSvc, cfg.Shop.CustomerURL, logger)
	srv := internalhttp.NewServer(h)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Router,
	}

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
