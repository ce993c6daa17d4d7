package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/acme/order-saga/internal/clients"
	"github.com/acme/order-saga/internal/config"
	"github.com/acme/order-saga/internal/httpx"
	"github.com/acme/order-saga/internal/inventory"
	kafkax "github.com/acme/order-saga/internal/kafka"
	"github.com/acme/order-saga/internal/orders"
	"github.com/acme/order-saga/internal/payments"
	"github.com/acme/order-saga/internal/postgres"
	"github.com/acme/order-saga/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
	// not the signal context: requests drained by Shutdown may still
	// publish, so the producer stops only via Close after the server exits
	prod.Start(context.Background())

	stock := &inventory.PgStore{DB: db}
	remote := clients.NewHTTPClient(cfg.UserServiceURL, cfg.ProductSvcURL)
	svc := &orders.Service{
		Store:    &orders.Repo{DB: db},
		Users:    remote,
		Products: remote,
		Stock:    stock,
		Producer: prod,
		Log:      log,
		Name:     cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Svc: svc, Redis: rdb, Log: log}).Register(router)
	(&httpx.InventoryHandler{Store: stock}).Register(router)
	(&httpx.PaymentsHandler{Store: &payments.Repo{DB: db}}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exit", zap.Error(err))
	}
	prod.Close()
	prod.WaitClosed()
}
