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

	"github.com/angelmondragon/wholesale-backend/api/routes"
	"github.com/angelmondragon/wholesale-backend/internal/auth"
	"github.com/angelmondragon/wholesale-backend/internal/cart"
	"github.com/angelmondragon/wholesale-backend/internal/categories"
	"github.com/angelmondragon/wholesale-backend/internal/checkout"
	"github.com/angelmondragon/wholesale-backend/internal/fallback"
	"github.com/angelmondragon/wholesale-backend/internal/orders"
	"github.com/angelmondragon/wholesale-backend/internal/products"
	"github.com/angelmondragon/wholesale-backend/internal/uploads"
	"github.com/angelmondragon/wholesale-backend/pkg/auth/session"
	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/instance"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
	"github.com/angelmondragon/wholesale-backend/pkg/metrics"
	"github.com/angelmondragon/wholesale-backend/pkg/migrate"
	"github.com/angelmondragon/wholesale-backend/pkg/outbox"
	"github.com/angelmondragon/wholesale-backend/pkg/redis"
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
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Gatherer: reg,
		HTTP:     metrics.NewHTTPMetrics(reg),
	}

	var (
		dbClient    *db.Client
		credentials *auth.CredentialRepository
	)
	if cfg.DB.Configured() {
		dbClient, err = db.New(context.Background(), cfg.DB, logg)
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

		productSvc, err := products.NewService(products.NewRepository(dbClient.DB()), dbClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create product service", err)
			os.Exit(1)
		}
		categorySvc, err := categories.NewService(categories.NewRepository(dbClient.DB()), productSvc, dbClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create category service", err)
			os.Exit(1)
		}
		orderSvc, err := orders.NewService(
			orders.NewRepository(dbClient.DB()),
			dbClient,
			outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
			logg,
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create order service", err)
			os.Exit(1)
		}
		deps.DB = dbClient
		deps.Products = productSvc
		deps.Categories = categorySvc
		deps.Orders = orderSvc
		credentials = auth.NewCredentialRepository(dbClient.DB())
	} else {
		logg.Warn(context.Background(), "database not configured, serving fallback catalog")
		fallbackProducts, fallbackCategories := fallback.New()
		deps.Products = fallbackProducts
		deps.Categories = fallbackCategories
		deps.Orders = orders.NewFallback(logg)
	}

	var (
		cartStore cart.Store
		sessions  session.Registry
	)
	if cfg.Redis.Configured() {
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
		redisCarts, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create cart store", err)
			os.Exit(1)
		}
		redisSessions, err := session.NewRedisRegistry(redisClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create session registry", err)
			os.Exit(1)
		}
		cartStore, sessions = redisCarts, redisSessions
		deps.Redis = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, carts and admin sessions are kept in memory")
		cartStore, sessions = cart.NewMemoryStore(), session.NewMemoryRegistry()
	}

	cartSvc, err := cart.NewService(cartStore, deps.Products, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Carts:          cartSvc,
		Orders:         deps.Orders,
		WhatsAppNumber: cfg.Checkout.WhatsAppNumber,
		LogAttempts:    cfg.Checkout.LogAttempts,
		Metrics:        metrics.NewCheckoutMetrics(reg),
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	authParams := auth.ServiceParams{
		Admin:    cfg.Admin,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Sessions: sessions,
		Logger:   logg,
	}
	if credentials != nil {
		authParams.Credentials = credentials
	}
	authSvc, err := auth.NewService(authParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	diskStore, err := uploads.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare uploads directory", err)
		os.Exit(1)
	}
	uploadSvc, err := uploads.NewService(cfg.Uploads, diskStore, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create upload service", err)
		os.Exit(1)
	}

	deps.Cart = cartSvc
	deps.Checkout = checkoutSvc
	deps.Auth = authSvc
	deps.Uploads = uploadSvc

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID("api"),
		"database": dbClient != nil,
		"redis":    deps.Redis != nil,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
