package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"facility-portal/internal/ports/blobstore"
)

func TestBlobStore_ListPagesThroughPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewBlobStoreWithPageSize(2)

	for i := 0; i < 5; i++ {
		_ = s.Put(ctx, fmt.Sprintf("E001/2024-03-0%d.ndjson", i+1), []byte("{}"))
	}
	_ = s.Put(ctx, "S002/2024-03-01.ndjson", []byte("{}"))

	var all []string
	cursor := ""
	pages := 0
	for {
		p, err := s.List(ctx, "E001/", cursor)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		pages++
		all = append(all, p.Keys...)
		if p.NextCursor == "" {
			break
		}
		cursor = p.NextCursor
	}

	if len(all) != 5 || pages != 3 {
		t.Fatalf("expected 5 keys in 3 pages, got %d keys in %d pages: %v", len(all), pages, all)
	}
	if all[0] != "E001/2024-03-01.ndjson" || all[4] != "E001/2024-03-05.ndjson" {
		t.Fatalf("expected sorted keys, got %v", all)
	}
}

func TestBlobStore_GetMissing(t *testing.T) {
	s := NewBlobStore()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, blobstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBlobStore_AppendAndCopy(t *testing.T) {
	ctx := context.Background()
	s := NewBlobStore()

	_ = s.Append(ctx, "E001/2024-03-01.ndjson", []byte("a\n"))
	_ = s.Append(ctx, "E001/2024-03-01.ndjson", []byte("b\n"))

	b, err := s.Get(ctx, "E001/2024-03-01.ndjson")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(b) != "a\nb\n" {
		t.Fatalf("unexpected body %q", b)
	}

	b[0] = 'x'
	again, _ := s.Get(ctx, "E001/2024-03-01.ndjson")
	if string(again) != "a\nb\n" {
		t.Fatalf("store content must not alias returned slices, got %q", again)
	}
}

func TestBlobStore_InvalidCursor(t *testing.T) {
	if _, err := NewBlobStore().List(context.Background(), "", "abc"); err == nil {
		t.Fatalf("expected error for invalid cursor")
	}
}
