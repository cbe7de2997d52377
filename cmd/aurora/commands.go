package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/aurora/backend/internal/blob"
	"github.com/emilythestrangee/aurora/backend/internal/config"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/logging"
	"github.com/emilythestrangee/aurora/backend/internal/server"
)

const storeCloseTimeout = 5 * time.Second

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:           "aurora",
		Short:         "Aurora social platform API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			return nil
		},
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and indexes",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.Database, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeStore(store)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	blobs, closeBlobs, err := openBlobs(ctx)
	if err != nil {
		return err
	}
	defer closeBlobs()

	return server.NewServer(cfg, store, blobs).Run(ctx)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := database.Open(ctx, cfg.Database, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer closeStore(store)

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	slog.Info("schema is up to date", "database", cfg.Database.Type)
	return nil
}

// openBlobs returns the configured blob store and a function releasing it.
func openBlobs(ctx context.Context) (blob.Store, func(), error) {
	switch cfg.Blob.Backend {
	case "gcs":
		gcs, err := blob.NewGCSStore(ctx, cfg.Blob.Bucket, cfg.Blob.CredentialsFile, cfg.Blob.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open blob store: %w", err)
		}
		slog.Info("using gcs blob store", "bucket", cfg.Blob.Bucket)
		return gcs, func() {
			if err := gcs.Close(); err != nil {
				slog.Warn("closing blob store", "error", err)
			}
		}, nil
	case "memory":
		baseURL := cfg.Blob.PublicBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d/blobs", cfg.Server.Port)
		}
		slog.Warn("using in-memory blob store, uploads are lost on exit", "base_url", baseURL)
		return blob.NewMemoryStore(baseURL), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported blob backend %q", cfg.Blob.Backend)
}

func closeStore(store database.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		slog.Warn("closing database", "error", err)
	}
}
