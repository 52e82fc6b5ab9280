package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mercadolocal/mercados-backend/api/routes"
	"github.com/mercadolocal/mercados-backend/internal/accounts"
	"github.com/mercadolocal/mercados-backend/internal/favorites"
	"github.com/mercadolocal/mercados-backend/internal/itineraries"
	"github.com/mercadolocal/mercados-backend/internal/markets"
	"github.com/mercadolocal/mercados-backend/internal/reviews"
	"github.com/mercadolocal/mercados-backend/internal/vendors"
	"github.com/mercadolocal/mercados-backend/pkg/config"
	"github.com/mercadolocal/mercados-backend/pkg/db"
	"github.com/mercadolocal/mercados-backend/pkg/identity"
	"github.com/mercadolocal/mercados-backend/pkg/kv"
	"github.com/mercadolocal/mercados-backend/pkg/logger"
	"github.com/mercadolocal/mercados-backend/pkg/metrics"
	"github.com/mercadolocal/mercados-backend/pkg/migrate"
	"github.com/mercadolocal/mercados-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	identityClient, err := identity.NewClient(cfg.Identity)
	if err != nil {
		logg.Error(context.Background(), "failed to create identity client", err)
		os.Exit(1)
	}

	store := kv.NewStore(dbClient.DB())

	itineraryService, err := itineraries.NewService(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create itinerary service", err)
		os.Exit(1)
	}
	marketService, err := markets.NewService(store, itineraryService)
	if err != nil {
		logg.Error(context.Background(), "failed to create market service", err)
		os.Exit(1)
	}
	vendorService, err := vendors.NewService(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create vendor service", err)
		os.Exit(1)
	}
	reviewService, err := reviews.NewService(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}
	favoritesService, err := favorites.NewService(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}
	accountsService, err := accounts.NewService(identityClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create accounts service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
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
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Verifier:    identityClient,
			Metrics:     httpMetrics,
			Registry:    registry,
			Accounts:    accountsService,
			Markets:     marketService,
			Vendors:     vendorService,
			Reviews:     reviewService,
			Itineraries: itineraryService,
			Favorites:   favoritesService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
