package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/shoplane/shoplane-backend/api/routes"
	authsvc "github.com/shoplane/shoplane-backend/internal/auth"
	cartsvc "github.com/shoplane/shoplane-backend/internal/cart"
	catalogsvc "github.com/shoplane/shoplane-backend/internal/catalog"
	checkoutsvc "github.com/shoplane/shoplane-backend/internal/checkout"
	ordersvc "github.com/shoplane/shoplane-backend/internal/orders"
	usersvc "github.com/shoplane/shoplane-backend/internal/users"
	"github.com/shoplane/shoplane-backend/pkg/auth/session"
	"github.com/shoplane/shoplane-backend/pkg/config"
	"github.com/shoplane/shoplane-backend/pkg/db"
	"github.com/shoplane/shoplane-backend/pkg/logger"
	"github.com/shoplane/shoplane-backend/pkg/metrics"
	"github.com/shoplane/shoplane-backend/pkg/migrate"
	"github.com/shoplane/shoplane-backend/pkg/redis"
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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := usersvc.NewRepository(dbClient.DB())
	catalogRepo := catalogsvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	ordersRepo := ordersvc.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := usersvc.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	catalogService, err := catalogsvc.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo, catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Tx:          dbClient,
		CartRepo:    cartRepo,
		CatalogRepo: catalogRepo,
		OrdersRepo:  ordersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := ordersvc.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Gatherer:    registry,
		HTTPMetrics: httpMetrics,
		Auth:        authService,
		Users:       userService,
		Catalog:     catalogService,
		Cart:        cartService,
		Checkout:    checkoutService,
		Orders:      ordersService,
	})

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
		Addr:    addr,
		Handler: router,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(shutdownCtx, server, dbClient, redisClient); err != nil {
		logg.Error(ctx, "shutdown finished with errors", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func shutdown(ctx context.Context, server *http.Server, dbClient *db.Client, redisClient *redis.Client) error {
	var errs []error
	if err := server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := dbClient.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := redisClient.Close(); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}
