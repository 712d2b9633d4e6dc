package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/authline/authline/internal/app"
	"github.com/authline/authline/internal/auth"
	"github.com/authline/authline/internal/observability"
	"github.com/authline/authline/internal/platform/db"
	"github.com/authline/authline/internal/store"
	"github.com/authline/authline/internal/users"
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

	pool, err := db.Open(ctx, cfg.PGDSN, cfg.StoreConnectTimeout)
	if err != nil {
		logger.Error("open postgres pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	gateway := store.NewGateway(pool, logger, store.Options{
		RetryDelay: cfg.StoreRetryDelay,
	})
	go gateway.Run(ctx)

	metrics := observability.NewMetrics()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-gateway.Events():
				metrics.SetStoreReady(ev.To == store.StateConnected)
			}
		}
	}()

	hasher := auth.NewHasher()
	tokens := auth.NewTokenService([]byte(cfg.TokenSecret), cfg.TokenTTL)

	userRepo := users.NewRepository(pool)
	authService := auth.NewService(logger, userRepo, hasher, tokens)
	authHandler := auth.NewHandler(logger, authService)

	profileService := users.NewService(userRepo)
	profileHandler := users.NewHandler(logger, profileService)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Store:          gateway,
		Tokens:         tokens,
		AuthHandler:    authHandler,
		ProfileHandler: profileHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
