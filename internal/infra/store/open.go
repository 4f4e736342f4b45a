package store

import (
	"context"
	"fmt"
	"log/slog"

	"fanout/internal/config"
	"fanout/internal/domain/notification"
)

// Store is an AuditStore that owns resources released by Close.
type Store interface {
	notification.AuditStore
	Close() error
}

// Open builds the store selected by cfg.Store.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory, "":
		slog.Info("audit store initialized", "driver", config.StoreMemory)
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		s, err := NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("audit store initialized", "driver", config.StoreSQLite, "path", cfg.Store.SQLitePath)
		return s, nil
	case config.StoreRedis:
		s, err := NewRedisStore(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Key)
		if err != nil {
			return nil, err
		}
		slog.Info("audit store initialized", "driver", config.StoreRedis, "redis", cfg.Redis.Address)
		return s, nil
	case config.StoreSupabase:
		s, err := NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			return nil, err
		}
		slog.Info("audit store initialized", "driver", config.StoreSupabase)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
