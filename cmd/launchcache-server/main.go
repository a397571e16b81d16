package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/launchcache/internal/cacheclock"
	"github.com/pendergraft/launchcache/internal/config"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
	"github.com/pendergraft/launchcache/internal/preferences"
	"github.com/pendergraft/launchcache/internal/reachability"
	"github.com/pendergraft/launchcache/internal/repositories"
	"github.com/pendergraft/launchcache/internal/server"
	"github.com/pendergraft/launchcache/internal/spacex"
	"github.com/pendergraft/launchcache/internal/storage"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "launchcache-server",
		Short:        "launchcache server - offline cache of the SpaceX API",
		Version:      version,
		SilenceUsage: true,
	}

	// Default behavior (no subcommand) is to serve
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe()
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newCacheCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the cache schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			store, err := storage.New(cfg.Storage, quietLogger())
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s store\n", cfg.Storage.Type)
			return nil
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg)
	logger.Info("starting launchcache-server", "version", version)

	metrics.Init(cfg.Metrics.Enabled, cfg.Metrics.ServiceName)

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	kv, err := storage.NewKV(cfg.KV, store, logger)
	if err != nil {
		return fmt.Errorf("initializing kv store: %w", err)
	}
	if cfg.KV.Type == "redis" {
		defer kv.Close()
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var upstream server.Upstream = reachability.Static(true)
	if cfg.Remote.ReachabilityEnabled {
		monitor := reachability.NewMonitor(reachability.Config{
			Addr:     cfg.Remote.ReachabilityAddr,
			Interval: cfg.Remote.ReachabilityInterval,
		}, nil, logger.With("component", "reachability"))
		monitor.Start(ctx)
		defer monitor.Stop()
		upstream = monitor
	}

	remote := spacex.NewFromConfig(cfg.Remote, upstream, logger.With("component", "spacex"))

	repos := repositories.New(repositories.Deps{
		Store:  store,
		Clock:  cacheclock.New(kv),
		Remote: remote,
		Cache:  cfg.Cache,
		Logger: logger,
	})

	checks := map[string]server.Check{
		"store": func(ctx context.Context) error {
			_, err := store.CountLaunches(ctx)
			return err
		},
	}
	if cfg.KV.Type == "redis" {
		checks["kv"] = func(ctx context.Context) error {
			_, err := kv.GetCacheTimestamp(ctx, cacheclock.KeyCompany)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return err
		}
	}

	srv := server.New(cfg, server.Deps{
		Repos:       repos,
		Preferences: preferences.NewService(kv, logger.With("component", "preferences")),
		Checks:      checks,
		Upstream:    upstream,
	}, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// quietLogger is used by the maintenance commands, which print their own output
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
