package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"facility-portal/internal/ports/blobstore"
)

const DefaultPageSize = 1000

// BlobStore guarda objetos en una tabla key/body. El listado usa keyset
// pagination: el cursor es la última key devuelta.
type BlobStore struct {
	db       *sql.DB
	pageSize int
}

func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db, pageSize: DefaultPageSize}
}

func (s *BlobStore) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key
		FROM formlog_blobs
		WHERE starts_with(key, $1) AND key > $2
		ORDER BY key ASC
		LIMIT $3
	`, prefix, cursor, s.pageSize)
	if err != nil {
		return blobstore.Page{}, err
	}
	defer rows.Close()

	keys := make([]string, 0, s.pageSize)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return blobstore.Page{}, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return blobstore.Page{}, err
	}

	page := blobstore.Page{Keys: keys}
	// página llena => puede haber más; la siguiente vendrá vacía en el peor caso
	if len(keys) == s.pageSize {
		page.NextCursor = keys[len(keys)-1]
	}
	return page, nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM formlog_blobs WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blobstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Put inserta o reemplaza la key (las event-shape keys son únicas por diseño
// del nombre, así que en la práctica nunca se reemplaza).
func (s *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("blob key required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO formlog_blobs (key, body)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body
	`, key, body)
	return err
}

// Append agrega al final del objeto (NDJSON diario), creándolo si no existe.
func (s *BlobStore) Append(ctx context.Context, key string, body []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("blob key required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO formlog_blobs (key, body)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET body = formlog_blobs.body || EXCLUDED.body
	`, key, body)
	return err
}
