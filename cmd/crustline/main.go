package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crustline/crustline/internal/app"
	"github.com/crustline/crustline/internal/auth"
	"github.com/crustline/crustline/internal/authz"
	"github.com/crustline/crustline/internal/franchise"
	"github.com/crustline/crustline/internal/observability"
	"github.com/crustline/crustline/internal/order"
	"github.com/crustline/crustline/internal/order/factory"
	"github.com/crustline/crustline/internal/platform/cache"
	"github.com/crustline/crustline/internal/platform/db"
	"github.com/crustline/crustline/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	denylist := auth.NewDenylist(redisClient)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, denylist)
	authn := auth.Authenticator{Tokens: tokens, Denylist: denylist, Repo: authRepo, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, authn)

	franchiseRepo := franchise.NewRepository(pool)
	franchiseService := franchise.NewService(franchiseRepo, cfg.ListPerPage)
	policy := authz.Middleware{Franchises: franchiseRepo, Logger: logger}
	franchiseHandler := franchise.NewHandler(logger, franchiseService, authn, policy)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, tokens, authn, policy)

	factoryClient := factory.NewClient(cfg.FactoryURL, cfg.FactoryAPIKey, cfg.FactoryTimeout)
	menuCache := order.NewMenuCache(redisClient, cfg.MenuCacheTTL)
	orderRepo := order.NewRepository(pool)
	orderService := order.NewService(orderRepo, menuCache, factoryClient, logger, cfg.ListPerPage)
	orderHandler := order.NewHandler(logger, orderService, authn, policy)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		FranchiseHandler: franchiseHandler,
		OrderHandler:     orderHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
