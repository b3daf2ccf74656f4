package httpblob

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"facility-portal/internal/ports/blobstore"
)

func newGateway(t *testing.T, h http.HandlerFunc) *BlobStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	st, err := New(srv.URL, "tkn", time.Second)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return st
}

func TestBlobStore_ListFollowsCursor(t *testing.T) {
	st := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tkn" {
			t.Errorf("authorization = %q", got)
		}
		if r.URL.Query().Get("prefix") != "E001/" {
			t.Errorf("prefix = %q", r.URL.Query().Get("prefix"))
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"blobs":   []map[string]string{{"pathname": "E001/2024-03-01.ndjson"}},
				"cursor":  "c1",
				"hasMore": true,
			})
		case "c1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"blobs":   []map[string]string{{"key": "E001/2024-03-02.ndjson"}},
				"cursor":  "c2",
				"hasMore": false,
			})
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})

	keys, _, err := blobstore.ListAll(context.Background(), st, "E001/", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Join(keys, ",") != "E001/2024-03-01.ndjson,E001/2024-03-02.ndjson" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestBlobStore_GetPutAndNotFound(t *testing.T) {
	stored := map[string][]byte{"E001/2024-03-01.ndjson": []byte("{\"ts\":1}\n")}
	st := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodGet:
			b, ok := stored[key]
			if !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			_, _ = w.Write(b)
		case http.MethodPut:
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %q", ct)
			}
			b, _ := io.ReadAll(r.Body)
			stored[key] = b
			w.WriteHeader(http.StatusCreated)
		}
	})
	ctx := context.Background()

	body, err := st.Get(ctx, "E001/2024-03-01.ndjson")
	if err != nil || string(body) != "{\"ts\":1}\n" {
		t.Fatalf("get: %q %v", body, err)
	}

	if _, err := st.Get(ctx, "E001/2024-03-05.ndjson"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := st.Put(ctx, "E002/2024-03-01/1709280000000-abc123.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if string(stored["E002/2024-03-01/1709280000000-abc123.json"]) != `{"a":1}` {
		t.Fatalf("put did not reach gateway: %v", stored)
	}
}

func TestBlobStore_ServerErrorIsNotNotFound(t *testing.T) {
	st := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := st.Get(context.Background(), "E001/2024-03-01.ndjson")
	if err == nil || errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if _, err := st.List(context.Background(), "", ""); err == nil {
		t.Fatalf("expected list error")
	}
}

func TestObjectPath(t *testing.T) {
	if got := objectPath("E 1/2024-03-01.ndjson"); got != "/E%201/2024-03-01.ndjson" {
		t.Fatalf("objectPath = %q", got)
	}
}
