package formstats

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"facility-portal/internal/adapters/storage/memory"
	"facility-portal/internal/ports/blobstore"
)

// seedStore arma un store en memoria con páginas chicas para forzar paginación.
func seedStore(t *testing.T, objects map[string]string) *memory.BlobStore {
	t.Helper()
	st := memory.NewBlobStoreWithPageSize(3)
	for k, v := range objects {
		if err := st.Put(context.Background(), k, []byte(v)); err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}
	return st
}

func ndjson(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// inflightStore mide cuántas lecturas hay en curso a la vez.
type inflightStore struct {
	blobstore.Reader
	delay time.Duration

	current atomic.Int32
	peak    atomic.Int32
	calls   atomic.Int32
}

func (s *inflightStore) Get(ctx context.Context, key string) ([]byte, error) {
	n := s.current.Add(1)
	defer s.current.Add(-1)
	s.calls.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.delay)
	return s.Reader.Get(ctx, key)
}

// hungStore nunca responde para las keys en hung hasta que se cierre release.
// Ignora el contexto a propósito.
type hungStore struct {
	blobstore.Reader
	hung    map[string]bool
	release chan struct{}
}

func (s *hungStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.hung[key] {
		<-s.release
		return nil, errors.New("released")
	}
	return s.Reader.Get(ctx, key)
}

// brokenStore simula un backend caído.
type brokenStore struct {
	listErr error
	getErr  error
	keys    []string
}

func (s brokenStore) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	if s.listErr != nil {
		return blobstore.Page{}, s.listErr
	}
	return blobstore.Page{Keys: s.keys}, nil
}

func (s brokenStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, s.getErr
}

// blockingLister bloquea el listado hasta que el contexto termine.
type blockingLister struct{}

func (blockingLister) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	<-ctx.Done()
	return blobstore.Page{}, ctx.Err()
}

func (blockingLister) Get(ctx context.Context, key string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// countingReader cuenta llamadas a List/Get (para verificar que la validación
// corta antes de tocar el store).
type countingReader struct {
	blobstore.Reader
	mu    sync.Mutex
	lists int
	gets  int
}

func (c *countingReader) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.Reader.List(ctx, prefix, cursor)
}

func (c *countingReader) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.Reader.Get(ctx, key)
}

func (c *countingReader) calls() (lists, gets int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists, c.gets
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}
