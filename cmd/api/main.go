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
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/clients"
	"github.com/angelmondragon/storefront-backend/internal/filters"
	"github.com/angelmondragon/storefront-backend/internal/newsletters"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/taxes"
	"github.com/angelmondragon/storefront-backend/internal/taxonomy"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Money fields are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

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

	deps := routes.Deps{DB: dbClient}

	if cfg.Redis.Enabled() {
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
		deps.Redis = redisClient
	} else {
		logg.Warn(context.Background(), "redis disabled; idempotency and rate limiting are off")
	}

	blobs, err := storage.New(context.Background(), cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}
	if pinger, ok := blobs.(storage.Pinger); ok {
		deps.Storage = pinger
	}

	services, err := buildServices(dbClient, blobs, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Registry = registry

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"prefix":   cfg.App.Prefix(),
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func buildServices(client *db.Client, blobs storage.Store, logg *logger.Logger) (routes.Services, error) {
	conn := client.DB()

	taxonomyRepo := taxonomy.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)

	taxonomySvc, err := taxonomy.NewService(taxonomy.ServiceParams{Repo: taxonomyRepo, Storage: blobs, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}
	filterSvc, err := filters.NewService(filters.ServiceParams{Repo: filters.NewRepository(conn), Storage: blobs, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}
	productSvc, err := products.NewService(products.ServiceParams{Repo: productRepo, Taxonomy: taxonomyRepo, Storage: blobs, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}
	cartSvc, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Products: productRepo, Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}
	wishlistSvc, err := wishlist.NewService(wishlist.ServiceParams{WishlistRepo: wishlist.NewRepository(conn), ProductRepo: productRepo})
	if err != nil {
		return routes.Services{}, err
	}
	taxSvc, err := taxes.NewService(taxes.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	shippingSvc, err := shipping.NewService(shipping.ServiceParams{Repo: shipping.NewRepository(conn), Logger: logg})
	if err != nil {
		return routes.Services{}, err
	}
	clientSvc, err := clients.NewService(clients.NewRepository(conn), client)
	if err != nil {
		return routes.Services{}, err
	}
	newsletterSvc, err := newsletters.NewService(newsletters.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(conn),
		Tx:        client,
		Outbox:    outbox.NewService(outbox.NewRepository(conn), logg),
		Cart:      cartRepo,
		Addresses: clientSvc,
		Shipping:  shippingSvc,
		Taxes:     taxSvc,
		Logger:    logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Taxonomy:    taxonomySvc,
		Filters:     filterSvc,
		Products:    productSvc,
		Cart:        cartSvc,
		Wishlist:    wishlistSvc,
		Orders:      orderSvc,
		Taxes:       taxSvc,
		Shipping:    shippingSvc,
		Clients:     clientSvc,
		Newsletters: newsletterSvc,
	}, nil
}
