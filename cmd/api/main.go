package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/entrealas/orderdesk/api/routes"
	"github.com/entrealas/orderdesk/internal/catalog"
	"github.com/entrealas/orderdesk/internal/delivery"
	"github.com/entrealas/orderdesk/internal/message"
	"github.com/entrealas/orderdesk/internal/orders"
	"github.com/entrealas/orderdesk/internal/pricing"
	"github.com/entrealas/orderdesk/internal/session"
	"github.com/entrealas/orderdesk/pkg/config"
	"github.com/entrealas/orderdesk/pkg/db"
	"github.com/entrealas/orderdesk/pkg/logger"
	"github.com/entrealas/orderdesk/pkg/metrics"
	"github.com/entrealas/orderdesk/pkg/migrate"
	"github.com/entrealas/orderdesk/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(reg)

	routeDeps := routes.Deps{
		Catalog:  catalog.Default(),
		Rules:    pricing.NewRules(cfg.Pricing.SpecialBase, cfg.Pricing.PremiumSurcharge, pricing.DefaultSauces),
		Gatherer: reg,
	}

	var store orders.Store = orders.NewLogStore(logg)
	if cfg.Store.UsesDB() {
		dbClient, dbErr := db.New(context.Background(), cfg.DB, logg)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			err = multierr.Append(err, dbClient.Close())
		}()
		if migrateErr := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); migrateErr != nil {
			return migrateErr
		}
		repo := orders.NewRepository(dbClient.DB())
		store = repo
		routeDeps.Orders = repo
		routeDeps.DB = dbClient
	}

	var channel delivery.Channel = delivery.NewDeepLink(cfg.Shop.DeepLinkBase, cfg.Shop.Recipient, nil)
	if cfg.Delivery.UsesRedis() {
		redisClient, redisErr := redis.New(context.Background(), cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		channel = delivery.NewRedis(redisClient, cfg.Redis.DeliveryChannel, cfg.Redis.IdempotencyTTL)
		routeDeps.Redis = redisClient
	}

	registry := session.NewRegistry(session.Deps{
		Catalog:        routeDeps.Catalog,
		Rules:          routeDeps.Rules,
		Formatter:      message.NewFormatter(cfg.Shop.Name, cfg.Shop.CurrencySymbol),
		Store:          store,
		Channel:        channel,
		Codes:          orders.NewCodeGenerator(cfg.Shop.CodePrefix),
		Metrics:        orderMetrics,
		Logger:         logg,
		ClientDebounce: cfg.Session.ClientDebounce,
		DeepLinkBase:   cfg.Shop.DeepLinkBase,
		Recipient:      cfg.Shop.Recipient,
	}, cfg.Session.IdleTTL)
	routeDeps.Sessions = registry

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"store":    cfg.Store.Mode,
		"delivery": channel.Protocol(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, routeDeps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := registry.Run(gctx, cfg.Session.SweepInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
