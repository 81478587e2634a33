package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quayline/stockdesk-backend/api/routes"
	"github.com/quayline/stockdesk-backend/internal/drafts"
	"github.com/quayline/stockdesk-backend/internal/stockview"
	"github.com/quayline/stockdesk-backend/internal/upstream"
	"github.com/quayline/stockdesk-backend/pkg/config"
	"github.com/quayline/stockdesk-backend/pkg/draftdb"
	"github.com/quayline/stockdesk-backend/pkg/logger"
	"github.com/quayline/stockdesk-backend/pkg/metrics"
	pkgredis "github.com/quayline/stockdesk-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "stockdesk"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "stockdesk",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	upstreamClient, err := upstream.NewClient(cfg.Upstream)
	if err != nil {
		logg.Error(context.Background(), "failed to build upstream client", err)
		os.Exit(1)
	}

	dbClient, err := draftdb.New(context.Background(), cfg.DraftDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to open draft store", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing draft store", err)
		}
	}()
	if err := dbClient.AutoMigrate(&drafts.Record{}); err != nil {
		logg.Error(context.Background(), "failed to migrate draft store", err)
		os.Exit(1)
	}

	var (
		idemStore   pkgredis.IdempotencyStore
		redisPinger pkgredis.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err := pkgredis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		idemStore = redisClient
		redisPinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, idempotency guard disabled")
	}

	stockService, err := stockview.NewService(stockview.ServiceParams{
		Stock:      upstreamClient,
		Writer:     upstreamClient,
		Thresholds: cfg.Risk,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stock service", err)
		os.Exit(1)
	}

	draftService, err := drafts.NewService(drafts.ServiceParams{
		Store:  drafts.NewStore(dbClient.DB()),
		Stock:  upstreamClient,
		Writer: upstreamClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create draft service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting stockdesk gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DraftDB:      dbClient,
			RedisPinger:  redisPinger,
			Idempotency:  idemStore,
			Upstream:     upstreamClient,
			StockService: stockService,
			DraftService: draftService,
			Metrics:      httpMetrics,
			Registry:     registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
