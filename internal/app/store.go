package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noah-isme/adminportal/internal/platform/cache"
	"github.com/noah-isme/adminportal/internal/platform/kv"
)

// OpenStore opens the document store selected by cfg.StoreDriver. The
// returned close function releases any connection it holds.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) (kv.Store, func() error, error) {
	switch cfg.StoreDriver {
	case StoreRedis:
		client, err := cache.New(ctx, cfg.KVURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis store", slog.String("prefix", cfg.KVPrefix))
		return kv.NewRedisStore(client, cfg.KVPrefix), client.Close, nil
	case StoreFile:
		store, err := kv.NewFileStore(cfg.StoreDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file store", slog.String("dir", cfg.StoreDir))
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
