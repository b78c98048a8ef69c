package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/colchonesapp/api/controllers"
	"github.com/angelmondragon/colchonesapp/api/routes"
	"github.com/angelmondragon/colchonesapp/internal/cart"
	"github.com/angelmondragon/colchonesapp/internal/checkout"
	"github.com/angelmondragon/colchonesapp/internal/invoices"
	"github.com/angelmondragon/colchonesapp/internal/pricing"
	"github.com/angelmondragon/colchonesapp/pkg/config"
	"github.com/angelmondragon/colchonesapp/pkg/db"
	"github.com/angelmondragon/colchonesapp/pkg/instance"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/angelmondragon/colchonesapp/pkg/metrics"
	"github.com/angelmondragon/colchonesapp/pkg/migrate"
	"github.com/angelmondragon/colchonesapp/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"terminal": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if cfg.FeatureFlags.AutoMigrate {
		requireResource(ctx, logg, "ledger bootstrap", migrate.Bootstrap(ctx, dbClient, logg))
	}

	ready := map[string]controllers.Pinger{"database": dbClient}

	var snapshots cart.SnapshotStore
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		snapshots, err = cart.NewRedisSnapshots(redisClient, cfg.POS.CartSnapshotTTL)
		requireResource(ctx, logg, "cart snapshots", err)
		ready["redis"] = redisClient
	} else {
		logg.Info(ctx, "redis disabled, carts are kept in memory only")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ledger, err := invoices.NewService(invoices.NewRepository(dbClient.DB()), dbClient, nil)
	requireResource(ctx, logg, "invoice service", err)

	checkoutSvc, err := checkout.NewService(ledger, metrics.NewCheckoutMetrics(reg), logg)
	requireResource(ctx, logg, "checkout service", err)

	resolver := pricing.NewResolver(logg)
	carts, err := cart.NewRegistry(func() (*cart.Cart, error) {
		return cart.New(resolver, cfg.POS.PaymentMethods, cfg.POS.DefaultPaymentMethod)
	}, snapshots, logg)
	requireResource(ctx, logg, "cart registry", err)

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			Carts:       carts,
			Checkout:    checkoutSvc,
			Invoices:    ledger,
			HTTPMetrics: metrics.NewHTTPMetrics(reg),
			Gatherer:    reg,
			Ready:       ready,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	err = multierr.Append(err, carts.PersistAll(shutdownCtx))
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	err = multierr.Append(err, dbClient.Close())
	if err != nil {
		logg.Error(shutdownCtx, "unclean shutdown", err)
		os.Exit(1)
	}
	logg.Info(shutdownCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
