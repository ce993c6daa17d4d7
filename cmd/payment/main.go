package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/acme/order-saga/internal/config"
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

	handler := &payments.Consumer{
		Store: &payments.Repo{DB: db},
		Dedup: &redisx.Dedup{RDB: rdb},
		Log:   log,
	}

	group := cfg.ConsumerGroup
	if group == "" {
		group = orders.GroupPayment
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPlaced, cfg.ConsumerWorkers, log)

	log.Info("payment consumer started",
		zap.String("group", group),
		zap.String("topic", orders.TopicOrderPlaced),
		zap.Int("workers", cfg.ConsumerWorkers))
	if err := cons.Start(ctx, handler.HandleOrderPlaced); err != nil {
		log.Error("consumer exit", zap.Error(err))
	}
}
