// Package repository selects and opens the persistence backend named by the
// configuration and hands it out behind one interface.
package repository

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/homie-data/internal/adapter/database"
	"github.com/couchcryptid/homie-data/internal/adapter/remote"
	"github.com/couchcryptid/homie-data/internal/adapter/stub"
	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/observability"
)

// Repository is an open backend.
type Repository interface {
	domain.Persist
	CheckReadiness(ctx context.Context) error
	Close() error
}

// Open builds the backend selected by cfg.Backend. The database backend
// connects and migrates before returning; construction is attempted once.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (Repository, error) {
	if cfg == nil {
		return nil, domain.ConfigErrorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendDatabase:
		store, err := database.Open(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, logger, metrics)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendRemote:
		logger.Info("remote backend", "base_url", cfg.RemoteBaseURL, "timeout", cfg.RemoteTimeout, "cache_size", cfg.RemoteCacheSize)
		return remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteTimeout, cfg.RemoteCacheSize, logger, metrics), nil
	case config.BackendStub:
		logger.Info("stub backend")
		return stub.New(), nil
	}
	return nil, domain.ConfigErrorf("unknown backend %q", cfg.Backend)
}
