package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"facility-portal/internal/ports/blobstore"
)

const DefaultPageSize = 1000

// BlobStore es un store key/value en memoria con listado paginado,
// igual que el backend real (páginas acotadas + cursor opaco).
type BlobStore struct {
	mu       sync.RWMutex
	byKey    map[string][]byte
	pageSize int
}

func NewBlobStore() *BlobStore {
	return NewBlobStoreWithPageSize(DefaultPageSize)
}

// NewBlobStoreWithPageSize permite forzar páginas chicas (tests de paginación).
func NewBlobStoreWithPageSize(pageSize int) *BlobStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &BlobStore{
		byKey:    make(map[string][]byte),
		pageSize: pageSize,
	}
}

func (s *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("blob key required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(body))
	copy(cp, body)
	s.byKey[key] = cp
	return nil
}

// Append agrega al final de la key (formato NDJSON del logger diario).
func (s *BlobStore) Append(ctx context.Context, key string, body []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("blob key required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.byKey[key] = append(s.byKey[key], body...)
	return nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byKey[key]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, nil
}

// List devuelve keys ordenadas; el cursor es el offset dentro del listado filtrado.
func (s *BlobStore) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	if err := ctx.Err(); err != nil {
		return blobstore.Page{}, err
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return blobstore.Page{}, errors.New("invalid cursor")
		}
		offset = n
	}

	s.mu.RLock()
	keys := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()

	sort.Strings(keys)

	if offset >= len(keys) {
		return blobstore.Page{Keys: []string{}}, nil
	}
	end := offset + s.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	page := blobstore.Page{Keys: keys[offset:end]}
	if end < len(keys) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}
