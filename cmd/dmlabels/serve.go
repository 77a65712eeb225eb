package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"dmlabels/internal/app"
	u "dmlabels/internal/utils"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP label service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := u.LoadConfig()
	// Allow the common container env var to override the Redis address.
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisHost = v
	}
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	u.SetLogLevel(cfg.Logger.Level)

	var rdb *redis.Client
	if cfg.Cache.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.ResultCacheDB,
		})
		defer rdb.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Auth.Enabled {
		if err := u.Tokens.LoadFromPostgres(ctx, cfg.Auth.Postgres); err != nil {
			u.Error("Failed to load API tokens", "error", err)
		}
		go u.Tokens.Refresh(ctx, cfg.Auth.Postgres, cfg.Auth.RefreshInterval)
		defer u.Tokens.Close()
	}

	return startServer(app.SetupApp(cfg, rdb), cfg)
}

// startServer starts the Fiber app and blocks until a termination signal
// arrives or the listener fails.
func startServer(app *fiber.App, cfg u.Config) error {
	listenErr := make(chan error, 1)
	go func() {
		addr := cfg.Server.Host + cfg.Server.Port
		u.Info("Listening", "addr", addr)
		listenErr <- app.Listen(addr)
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigint)

	select {
	case err := <-listenErr:
		return fmt.Errorf("listen: %w", err)
	case <-sigint:
	}

	u.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	u.Info("Server stopped cleanly")
	return nil
}
