package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"facility-portal/internal/adapters/storage/azureblob"
	"facility-portal/internal/adapters/storage/httpblob"
	mem "facility-portal/internal/adapters/storage/memory"
	pg "facility-portal/internal/adapters/storage/postgres"
	"facility-portal/internal/platform/config"
	"facility-portal/internal/ports/blobstore"
)

// OpenStore construye el store según cfg.Backend. closer libera recursos
// (pool de Postgres); nunca es nil.
func OpenStore(ctx context.Context, cfg config.Config) (store blobstore.Store, closer func() error, err error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory, "":
		return mem.NewBlobStore(), noop, nil

	case config.BackendPostgres:
		if cfg.DBDSN == "" {
			return nil, noop, errors.New("postgres backend: DB_DSN required")
		}
		db, err := pg.Open(cfg.DBDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("postgres backend: %w", err)
		}
		if err := pg.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("postgres schema: %w", err)
		}
		return pg.NewBlobStore(db), db.Close, nil

	case config.BackendAzure:
		if cfg.AzureConnStr == "" {
			return nil, noop, errors.New("azblob backend: AZURE_STORAGE_CONNECTION_STRING required")
		}
		st, err := azureblob.New(cfg.AzureConnStr, cfg.AzureContainer, azureblob.Options{})
		if err != nil {
			return nil, noop, fmt.Errorf("azblob backend: %w", err)
		}
		if cfg.AzureEnsure {
			if err := st.EnsureContainer(ctx); err != nil {
				return nil, noop, fmt.Errorf("azblob backend: ensure container %q: %w", cfg.AzureContainer, err)
			}
		}
		return st, noop, nil

	case config.BackendHTTP:
		if cfg.BlobsBaseURL == "" {
			return nil, noop, errors.New("http backend: BLOBS_BASE_URL required")
		}
		st, err := httpblob.New(cfg.BlobsBaseURL, cfg.BlobsToken, cfg.Stats.ReadTimeout)
		if err != nil {
			return nil, noop, fmt.Errorf("http backend: %w", err)
		}
		return st, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// OpenRedis devuelve nil sin error cuando no hay REDIS_URL o la caché está
// desactivada (STATS_CACHE_TTL=0). No hace ping: con Redis caído la caché
// pasa directo al servicio.
func OpenRedis(cfg config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" || cfg.Stats.CacheTTL <= 0 {
		return nil, nil
	}
	o, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	o.DialTimeout = 2 * time.Second
	o.ReadTimeout = time.Second
	o.WriteTimeout = time.Second
	return redis.NewClient(o), nil
}
