package httpblob

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"facility-portal/internal/platform/httpclient"
	"facility-portal/internal/ports/blobstore"
)

const DefaultPageSize = 1000

// BlobStore habla con un gateway HTTP de blobs con el mismo contrato de listado
// que Vercel Blob: GET /?prefix=&cursor=&limit= => {blobs:[{pathname}],cursor,hasMore}.
// Los objetos se leen y escriben en /<key>.
type BlobStore struct {
	client   *httpclient.Client
	token    string
	pageSize int
}

type listResponse struct {
	Blobs []struct {
		Pathname string `json:"pathname"`
		Key      string `json:"key"` // gateways propios
	} `json:"blobs"`
	Cursor  string `json:"cursor"`
	HasMore bool   `json:"hasMore"`
}

func New(baseURL, token string, timeout time.Duration) (*BlobStore, error) {
	c, err := httpclient.NewWithBaseURL(baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &BlobStore{client: c, token: strings.TrimSpace(token), pageSize: DefaultPageSize}, nil
}

func (s *BlobStore) headers() map[string]string {
	if s.token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + s.token}
}

func (s *BlobStore) List(ctx context.Context, prefix, cursor string) (blobstore.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(s.pageSize))
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	var out listResponse
	if err := s.client.DoJSON(ctx, http.MethodGet, "/?"+q.Encode(), s.headers(), nil, &out); err != nil {
		return blobstore.Page{}, err
	}

	page := blobstore.Page{Keys: make([]string, 0, len(out.Blobs))}
	for _, b := range out.Blobs {
		k := b.Pathname
		if k == "" {
			k = b.Key
		}
		if k != "" {
			page.Keys = append(page.Keys, k)
		}
	}
	if out.HasMore {
		page.NextCursor = out.Cursor
	}
	return page, nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	body, err := s.client.DoRaw(ctx, http.MethodGet, objectPath(key), s.headers(), nil)
	if httpclient.IsStatus(err, http.StatusNotFound) {
		return nil, blobstore.ErrNotFound
	}
	return body, err
}

func (s *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range s.headers() {
		h[k] = v
	}
	_, err := s.client.DoRaw(ctx, http.MethodPut, objectPath(key), h, body)
	return err
}

// objectPath escapa cada segmento pero conserva las "/" de la key.
func objectPath(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "/" + strings.Join(parts, "/")
}
