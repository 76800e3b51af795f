package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"github.com/entrealas/orderdesk/internal/delivery"
	"github.com/entrealas/orderdesk/pkg/config"
	"github.com/entrealas/orderdesk/pkg/logger"
	"github.com/entrealas/orderdesk/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "delivery-listener"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if !cfg.Redis.Configured() {
		logg.Error(context.Background(), "redis endpoint required", errors.New("set "+config.EnvRedisURL+" or "+config.EnvRedisAddr))
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "delivery-listener",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	consumer, err := delivery.NewConsumer(newHandler(redisClient, logg, nil), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"channel": cfg.Redis.DeliveryChannel,
	})

	messages, unsubscribe, err := redisClient.Subscribe(ctx, cfg.Redis.DeliveryChannel)
	if err != nil {
		logg.Error(ctx, "failed to subscribe", err)
		os.Exit(1)
	}
	defer func() {
		if err := unsubscribe(); err != nil {
			logg.Error(context.Background(), "error closing subscription", err)
		}
	}()

	logg.Info(ctx, "starting delivery listener")
	feed := payloads(ctx, messages, func(m *goredis.Message) string { return m.Payload })
	if err := consumer.Run(ctx, feed); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "delivery listener stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "delivery listener shutting down gracefully")
}
