package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	issues "github.com/markawm/acme-github-issues"
	"github.com/markawm/acme-github-issues/adapters/gologger"
	"github.com/markawm/acme-github-issues/core"
	sqlstore "github.com/markawm/acme-github-issues/store/sql"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	ctx := context.Background()

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg, err := issues.LoadConfig(ctx)
	if err != nil {
		gologger.Setup(core.LoggingConfig{}, false, os.Stderr).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := gologger.Setup(cfg.Logging, cfg.IsProduction(), os.Stdout)
	logger.Info("acme-issues starting", "env", cfg.Environment, "service", cfg.ServiceName)

	opts := []issues.Option{issues.WithLogger(logger)}

	if cfg.Database.Enabled {
		client, err := sqlstore.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()

		store, err := sqlstore.NewDeliveryLogFromPersistence(client)
		if err != nil {
			logger.Error("failed to build delivery log", "error", err)
			os.Exit(1)
		}
		cacheConfig := repositorycache.DefaultConfig()
		cacheConfig.TTL = cfg.Cache.TTL
		cacheService, err := repositorycache.NewCacheService(cacheConfig)
		if err != nil {
			logger.Error("failed to build delivery log cache", "error", err)
			os.Exit(1)
		}
		deliveryLog, err := sqlstore.NewCachedDeliveryLog(store, cacheService)
		if err != nil {
			logger.Error("failed to build delivery log cache", "error", err)
			os.Exit(1)
		}
		opts = append(opts, issues.WithDeliveryLog(deliveryLog))
		logger.Info("database connected", "driver", cfg.Database.Driver)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := issues.New(cfg, opts...)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.Server.Addr, "webhook_path", cfg.Webhook.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}
