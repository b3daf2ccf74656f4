package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "time/tzdata" // zonas embebidas: el runtime serverless no siempre trae /usr/share/zoneinfo

	"facility-portal/internal/domain/formstats"
)

// Los defaults y topes del motor viven en formstats.
const (
	DefaultTimezone  = "Europe/Brussels"
	DefaultContainer = "formlog"
)

type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendPostgres StoreBackend = "postgres"
	BackendAzure    StoreBackend = "azblob"
	BackendHTTP     StoreBackend = "http"
)

// Stats agrupa los parámetros del motor de agregación.
type Stats struct {
	Timezone       *time.Location
	Concurrency    int
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	MaxDays        int
	MaxFiles       int
	CacheTTL       time.Duration
	RateLimit      int // requests/minuto por IP; 0 = sin límite
}

type Config struct {
	Port string

	Backend        StoreBackend
	DBDSN          string
	AzureConnStr   string
	AzureContainer string
	AzureEnsure    bool // crea el container al arrancar (dev / Azurite)
	BlobsBaseURL   string
	BlobsToken     string
	RedisURL       string
	FormlogShape   string // event|daily; ver formlog.ParseShape

	Stats Stats
}

// Default devuelve la configuración de desarrollo (store en memoria, sin cache).
func Default() Config {
	loc, _ := time.LoadLocation(DefaultTimezone)
	return Config{
		Port:           "8080",
		Backend:        BackendMemory,
		AzureContainer: DefaultContainer,
		Stats: Stats{
			Timezone:       loc,
			Concurrency:    formstats.DefaultConcurrency,
			ReadTimeout:    formstats.DefaultReadTimeout,
			RequestTimeout: formstats.DefaultRequestTimeout,
			MaxDays:        formstats.DefaultMaxDays,
			MaxFiles:       formstats.DefaultMaxFiles,
		},
	}
}

// FromEnv lee la configuración desde variables de entorno.
// Valores vacíos conservan el default; valores inválidos devuelven error.
func FromEnv() (Config, error) {
	return fromLookup(os.Getenv)
}

func fromLookup(get func(string) string) (Config, error) {
	c := Default()

	if v := strings.TrimSpace(get("PORT")); v != "" {
		c.Port = v
	}
	if v := strings.TrimSpace(get("STORE_BACKEND")); v != "" {
		b, err := ParseBackend(v)
		if err != nil {
			return Config{}, err
		}
		c.Backend = b
	}
	c.DBDSN = strings.TrimSpace(get("DB_DSN"))
	c.AzureConnStr = strings.TrimSpace(get("AZURE_STORAGE_CONNECTION_STRING"))
	if v := strings.TrimSpace(get("AZURE_STORAGE_CONTAINER")); v != "" {
		c.AzureContainer = v
	}
	if v := strings.TrimSpace(get("AZURE_ENSURE_CONTAINER")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("AZURE_ENSURE_CONTAINER: %w", err)
		}
		c.AzureEnsure = b
	}
	c.BlobsBaseURL = strings.TrimSpace(get("BLOBS_BASE_URL"))
	c.BlobsToken = strings.TrimSpace(get("BLOBS_TOKEN"))
	c.RedisURL = strings.TrimSpace(get("REDIS_URL"))
	c.FormlogShape = strings.TrimSpace(get("FORMLOG_SHAPE"))

	if v := strings.TrimSpace(get("STATS_TIMEZONE")); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return Config{}, fmt.Errorf("STATS_TIMEZONE: %w", err)
		}
		c.Stats.Timezone = loc
	}

	var err error
	if c.Stats.Concurrency, err = intVar(get, "STATS_CONCURRENCY", c.Stats.Concurrency, 1, formstats.MaxConcurrency); err != nil {
		return Config{}, err
	}
	if c.Stats.MaxDays, err = intVar(get, "STATS_MAX_DAYS", c.Stats.MaxDays, 1, formstats.MaxDaysCap); err != nil {
		return Config{}, err
	}
	if c.Stats.MaxFiles, err = intVar(get, "STATS_MAX_FILES", c.Stats.MaxFiles, 1, formstats.MaxFilesCap); err != nil {
		return Config{}, err
	}
	if c.Stats.RateLimit, err = intVar(get, "STATS_RATE_LIMIT", 0, 0, 100000); err != nil {
		return Config{}, err
	}
	if c.Stats.ReadTimeout, err = durationVar(get, "STATS_READ_TIMEOUT", c.Stats.ReadTimeout); err != nil {
		return Config{}, err
	}
	if c.Stats.RequestTimeout, err = durationVar(get, "STATS_REQUEST_TIMEOUT", c.Stats.RequestTimeout); err != nil {
		return Config{}, err
	}
	if c.Stats.CacheTTL, err = durationVar(get, "STATS_CACHE_TTL", 0); err != nil {
		return Config{}, err
	}

	return c, nil
}

func ParseBackend(s string) (StoreBackend, error) {
	switch b := StoreBackend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendMemory, BackendPostgres, BackendAzure, BackendHTTP:
		return b, nil
	default:
		return "", fmt.Errorf("unknown store backend %q", s)
	}
}

func intVar(get func(string) string, name string, def, min, max int) (int, error) {
	v := strings.TrimSpace(get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s: must be between %d and %d", name, min, max)
	}
	return n, nil
}

func durationVar(get func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(get(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", name)
	}
	return d, nil
}
