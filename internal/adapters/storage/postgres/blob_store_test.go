package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"facility-portal/internal/ports/blobstore"
)

// Requiere un Postgres real: TEST_DB_DSN=postgres://... go test ./...
func openTestDB(t *testing.T) *BlobStore {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM formlog_blobs WHERE starts_with(key, 'T-')`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	return NewBlobStore(db)
}

func TestBlobStore_PutGetList(t *testing.T) {
	st := openTestDB(t)
	st.pageSize = 2
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("T-%d/2024-03-0%d.ndjson", i%2, i+1)
		if err := st.Put(ctx, key, []byte(`{"i":`+fmt.Sprint(i)+`}`)); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	keys, truncated, err := blobstore.ListAll(ctx, st, "T-0/", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if truncated {
		t.Fatalf("unexpected truncation")
	}
	want := []string{"T-0/2024-03-01.ndjson", "T-0/2024-03-03.ndjson", "T-0/2024-03-05.ndjson"}
	if fmt.Sprint(keys) != fmt.Sprint(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	body, err := st.Get(ctx, "T-1/2024-03-02.ndjson")
	if err != nil || string(body) != `{"i":1}` {
		t.Fatalf("get: %q %v", body, err)
	}

	if _, err := st.Get(ctx, "T-9/missing.ndjson"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlobStore_Append(t *testing.T) {
	st := openTestDB(t)
	ctx := context.Background()
	key := "T-2/2024-03-01.ndjson"

	for _, line := range []string{"{\"a\":1}\n", "{\"a\":2}\n"} {
		if err := st.Append(ctx, key, []byte(line)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	body, err := st.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(body) != "{\"a\":1}\n{\"a\":2}\n" {
		t.Fatalf("body = %q", body)
	}
}
