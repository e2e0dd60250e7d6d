package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/vitrine-backend/api/controllers"
	"github.com/angelmondragon/vitrine-backend/api/routes"
	"github.com/angelmondragon/vitrine-backend/internal/carrier"
	"github.com/angelmondragon/vitrine-backend/internal/catalog"
	"github.com/angelmondragon/vitrine-backend/internal/categories"
	"github.com/angelmondragon/vitrine-backend/internal/fulfillment"
	"github.com/angelmondragon/vitrine-backend/internal/orders"
	"github.com/angelmondragon/vitrine-backend/internal/shipping"
	"github.com/angelmondragon/vitrine-backend/internal/stores"
	"github.com/angelmondragon/vitrine-backend/pkg/auth/session"
	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"github.com/angelmondragon/vitrine-backend/pkg/db"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/angelmondragon/vitrine-backend/pkg/melhorenvio"
	"github.com/angelmondragon/vitrine-backend/pkg/metrics"
	"github.com/angelmondragon/vitrine-backend/pkg/migrate"
	"github.com/angelmondragon/vitrine-backend/pkg/redis"
	"github.com/angelmondragon/vitrine-backend/pkg/security"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const shutdownTimeout = 15 * time.Second

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
		ServiceName: cfg.App.ServiceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient)
	if err != nil {
		return err
	}

	sealer, err := security.NewSealer(cfg.Secrets)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps, err := wire(cfg, logg, dbClient, redisClient, sealer, registry)
	if err != nil {
		return err
	}
	deps.ReadyChecks = map[string]controllers.Pinger{"postgres": dbClient, "redis": redisClient}
	deps.Registry = registry
	deps.Sessions = sessionManager
	deps.Idempotency = redisClient

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// wire builds the domain services on top of the shared clients.
func wire(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sealer *security.Sealer, registry *prometheus.Registry) (routes.Dependencies, error) {
	conn := dbClient.DB()

	storeRepo := stores.NewRepository(conn)
	storeSvc, err := stores.NewService(storeRepo, cfg.Storefront.BaseDomain)
	if err != nil {
		return routes.Dependencies{}, err
	}
	carrierConfig, err := stores.NewCarrierConfigService(storeRepo, sealer)
	if err != nil {
		return routes.Dependencies{}, err
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}

	factory := melhorenvio.NewFactory(cfg.MelhorEnvio, metrics.NewCarrierMetrics(registry), nil)
	carrierSvc, err := carrier.NewService(carrierConfig, storeSvc, catalogSvc, carrier.FromFactory(factory))
	if err != nil {
		return routes.Dependencies{}, err
	}

	shippingSvc, err := shipping.NewService(shipping.ServiceParams{
		Repo:    shipping.NewRepository(conn),
		Tx:      dbClient,
		Carrier: carrierSvc,
		Logger:  logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	fulfillmentSvc, err := fulfillment.NewService(fulfillment.ServiceParams{
		Repo:    fulfillment.NewRepository(conn),
		Carrier: carrierSvc,
		Methods: shippingSvc,
		Locker:  redisClient,
		Logger:  logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	categorySvc, err := categories.NewService(categories.NewRepository(conn), dbClient)
	if err != nil {
		return routes.Dependencies{}, err
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(conn),
		Tx:       dbClient,
		Catalog:  catalogSvc,
		Shipping: shippingSvc,
		Stores:   storeSvc,
		Handoff:  orders.NewHandoff(cfg.Storefront),
		Logger:   logg,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Stores:        storeSvc,
		CarrierConfig: carrierConfig,
		Carrier:       carrierSvc,
		Shipping:      shippingSvc,
		Fulfillment:   fulfillmentSvc,
		Categories:    categorySvc,
		Catalog:       catalogSvc,
		Orders:        orderSvc,
	}, nil
}
