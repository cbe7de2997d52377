package database

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/aurora/backend/internal/config"
)

// Open connects to the store selected by cfg.Type.
func Open(ctx context.Context, cfg config.DatabaseConfig, production bool) (Store, error) {
	switch cfg.Type {
	case "postgres":
		level := logger.Info
		if production {
			level = logger.Warn
		}
		store, err := NewPostgresStore(cfg.URI, level)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to postgres", "host", cfg.Host, "database", cfg.Name)
		return store, nil
	case "mongo":
		store, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to mongodb", "database", cfg.MongoDB)
		return store, nil
	case "memory":
		slog.Warn("using in-memory store, data is lost on exit")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
}
