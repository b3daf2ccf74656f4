package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"facility-portal/internal/domain/formstats"
	"facility-portal/internal/platform/config"
	"facility-portal/internal/platform/logger"
)

// parseFlags aplica los flags sobre la config de entorno: un flag explícito
// gana sobre la variable correspondiente.
func parseFlags(args []string, cfg config.Config) (config.Config, logger.Options, error) {
	fs := pflag.NewFlagSet("api", pflag.ContinueOnError)

	port := fs.StringP("port", "p", cfg.Port, "puerto HTTP (PORT)")
	backend := fs.String("store", string(cfg.Backend), "backend de blobs: memory|postgres|azblob|http (STORE_BACKEND)")
	dsn := fs.String("db-dsn", cfg.DBDSN, "DSN de Postgres (DB_DSN)")
	container := fs.String("azure-container", cfg.AzureContainer, "container de Azure Blob (AZURE_STORAGE_CONTAINER)")
	blobsURL := fs.String("blobs-url", cfg.BlobsBaseURL, "URL base del gateway de blobs (BLOBS_BASE_URL)")
	redisURL := fs.String("redis-url", cfg.RedisURL, "Redis para caché de resultados (REDIS_URL)")
	cacheTTL := fs.Duration("cache-ttl", cfg.Stats.CacheTTL, "TTL de la caché; 0 la desactiva (STATS_CACHE_TTL)")
	tz := fs.String("timezone", cfg.Stats.Timezone.String(), "zona de referencia para los días (STATS_TIMEZONE)")
	concurrency := fs.Int("concurrency", cfg.Stats.Concurrency, "lecturas en paralelo por consulta (STATS_CONCURRENCY)")
	rateLimit := fs.Int("rate-limit", cfg.Stats.RateLimit, "requests/minuto por IP en /formstats; 0 = sin límite (STATS_RATE_LIMIT)")
	logLevel := fs.String("log-level", envOr("LOG_LEVEL", "info"), "debug|info|warn|error (LOG_LEVEL)")
	logFormat := fs.String("log-format", envOr("LOG_FORMAT", "text"), "text|json (LOG_FORMAT)")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, logger.Options{}, err
	}

	b, err := config.ParseBackend(*backend)
	if err != nil {
		return config.Config{}, logger.Options{}, err
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return config.Config{}, logger.Options{}, fmt.Errorf("--timezone: %w", err)
	}
	if *concurrency < 1 || *concurrency > formstats.MaxConcurrency {
		return config.Config{}, logger.Options{}, fmt.Errorf("--concurrency: must be between 1 and %d", formstats.MaxConcurrency)
	}
	if *rateLimit < 0 {
		return config.Config{}, logger.Options{}, fmt.Errorf("--rate-limit: must not be negative")
	}
	if *cacheTTL < 0 {
		return config.Config{}, logger.Options{}, fmt.Errorf("--cache-ttl: must not be negative")
	}

	cfg.Port = *port
	cfg.Backend = b
	cfg.DBDSN = *dsn
	cfg.AzureContainer = *container
	cfg.BlobsBaseURL = *blobsURL
	cfg.RedisURL = *redisURL
	cfg.Stats.CacheTTL = *cacheTTL
	cfg.Stats.Timezone = loc
	cfg.Stats.Concurrency = *concurrency
	cfg.Stats.RateLimit = *rateLimit

	return cfg, logger.Options{
		Level:  logger.ParseLevel(*logLevel),
		Format: logger.ParseFormat(*logFormat),
		App:    envOr("APP_NAME", "facility-portal"),
	}, nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
