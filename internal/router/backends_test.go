package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"facility-portal/internal/platform/config"
	"facility-portal/internal/ports/blobstore"
	"facility-portal/internal/router"
)

func TestOpenStore_MemoryIsWritable(t *testing.T) {
	st, closer, err := router.OpenStore(context.Background(), config.Default())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closer()
	if _, ok := any(st).(blobstore.Writer); !ok {
		t.Fatalf("memory store must accept writes")
	}
}

func TestOpenStore_MissingSettings(t *testing.T) {
	for _, b := range []config.StoreBackend{config.BackendPostgres, config.BackendAzure, config.BackendHTTP, "s3"} {
		cfg := config.Default()
		cfg.Backend = b
		if _, closer, err := router.OpenStore(context.Background(), cfg); err == nil {
			t.Fatalf("%s: expected configuration error", b)
		} else if closer == nil {
			t.Fatalf("%s: closer must never be nil", b)
		}
	}
}

func TestOpenStore_HTTPBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendHTTP
	cfg.BlobsBaseURL = "https://blobs.example"
	if _, _, err := router.OpenStore(context.Background(), cfg); err != nil {
		t.Fatalf("open: %v", err)
	}
}

func TestOpenRedis(t *testing.T) {
	cfg := config.Default()

	if c, err := router.OpenRedis(cfg); err != nil || c != nil {
		t.Fatalf("without REDIS_URL: %v %v", c, err)
	}

	cfg.RedisURL = "redis://localhost:6379/0"
	if c, err := router.OpenRedis(cfg); err != nil || c != nil {
		t.Fatalf("cache disabled (ttl 0) must not open a client: %v %v", c, err)
	}

	cfg.Stats.CacheTTL = time.Minute
	c, err := router.OpenRedis(cfg)
	if err != nil || c == nil {
		t.Fatalf("expected client: %v", err)
	}
	_ = c.Close()

	cfg.RedisURL = "not-a-url"
	if _, err := router.OpenRedis(cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}

// Clave pública de Azurite (emulador); no es un secreto.
const azuriteKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

func TestOpenStore_AzureEnsuresContainer(t *testing.T) {
	var creates atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/devstoreaccount1/formlog" && r.URL.Query().Get("restype") == "container" {
			creates.Add(1)
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Backend = config.BackendAzure
	cfg.AzureConnStr = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=" + azuriteKey +
		";BlobEndpoint=" + srv.URL + "/devstoreaccount1;"

	if _, _, err := router.OpenStore(context.Background(), cfg); err != nil {
		t.Fatalf("open without ensure: %v", err)
	}
	if n := creates.Load(); n != 0 {
		t.Fatalf("container must not be created unless asked, got %d creates", n)
	}

	cfg.AzureEnsure = true
	if _, _, err := router.OpenStore(context.Background(), cfg); err != nil {
		t.Fatalf("open with ensure: %v", err)
	}
	if n := creates.Load(); n != 1 {
		t.Fatalf("expected 1 container create, got %d", n)
	}

	cfg.AzureContainer = "missing-perms"
	if _, closer, err := router.OpenStore(context.Background(), cfg); err == nil {
		t.Fatalf("expected ensure error")
	} else if closer == nil {
		t.Fatalf("closer must never be nil")
	}
}
