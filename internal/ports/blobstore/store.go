package blobstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound lo devuelven los adapters cuando la key no existe.
	ErrNotFound = errors.New("blob not found")
)

// Page es una página de listado. NextCursor vacío => no hay más páginas.
type Page struct {
	Keys       []string
	NextCursor string
}

// Reader es lo único que consume el motor de estadísticas: listar y leer.
type Reader interface {
	List(ctx context.Context, prefix, cursor string) (Page, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Writer lo usa solo la ingesta (formlog). No todos los backends lo soportan.
type Writer interface {
	Put(ctx context.Context, key string, body []byte) error
}

type Store interface {
	Reader
	Writer
}

// Appender agrega al final de una key (NDJSON diario). Opcional: solo los
// backends que lo soportan sin read-modify-write (memory, postgres).
type Appender interface {
	Append(ctx context.Context, key string, body []byte) error
}
