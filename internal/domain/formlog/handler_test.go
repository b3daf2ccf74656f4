package formlog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"facility-portal/internal/adapters/storage/memory"
)

func serve(t *testing.T, svc *Service, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r, svc)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_PostIsBeaconFriendly(t *testing.T) {
	store := memory.NewBlobStore()
	svc := newTestService(store)

	req := httptest.NewRequest(http.MethodPost, "/formlog", strings.NewReader(`{"code":"E001","type":"url_load"}`))
	req.Header.Set("User-Agent", "beacon")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	rec := serve(t, svc, req)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", rec.Code, rec.Body.String())
	}
	ev := decodeStored(t, store, "E001/2024-03-01/1709285400000-abc123.json")
	if ev["ua"] != "beacon" || ev["ip"] != "203.0.113.7" {
		t.Fatalf("meta = %v / %v", ev["ua"], ev["ip"])
	}
}

func TestHandler_DebugEchoesKey(t *testing.T) {
	svc := newTestService(memory.NewBlobStore())

	rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/formlog?debug=1", strings.NewReader(`{"code":"E002"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true || body["key"] != "E002/2024-03-01/1709285400000-abc123.json" {
		t.Fatalf("body = %v", body)
	}
}

func TestHandler_InvalidJSONStill204(t *testing.T) {
	rec := serve(t, newTestService(memory.NewBlobStore()), httptest.NewRequest(http.MethodPost, "/formlog?debug=1", strings.NewReader(`{oops`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandler_WriteFailure(t *testing.T) {
	svc := NewService(memory.NewBlobStore(), failingWriter{}, nil)

	if rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/formlog", strings.NewReader(`{}`))); rec.Code != http.StatusNoContent {
		t.Fatalf("without debug: status = %d", rec.Code)
	}

	rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/formlog?debug=1", strings.NewReader(`{}`)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("with debug: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestHandler_GetHeadOptions(t *testing.T) {
	svc := newTestService(memory.NewBlobStore())

	rec := serve(t, svc, httptest.NewRequest(http.MethodGet, "/formlog", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "POST JSON telemetry") {
		t.Fatalf("GET = %d %s", rec.Code, rec.Body.String())
	}
	for _, m := range []string{http.MethodHead, http.MethodOptions} {
		if rec := serve(t, svc, httptest.NewRequest(m, "/formlog", nil)); rec.Code != http.StatusNoContent {
			t.Fatalf("%s = %d", m, rec.Code)
		}
	}
}

func TestHandler_ReadOnlyStoreHasNoIngest(t *testing.T) {
	svc := NewService(memory.NewBlobStore(), nil, nil)

	rec := serve(t, svc, httptest.NewRequest(http.MethodPost, "/formlog", strings.NewReader(`{}`)))
	if rec.Code == http.StatusNoContent || rec.Code == http.StatusOK {
		t.Fatalf("POST must not be routed on a read-only store, got %d", rec.Code)
	}
	if rec := serve(t, svc, httptest.NewRequest(http.MethodGet, "/formlog/tail", nil)); rec.Code != http.StatusOK {
		t.Fatalf("tail = %d", rec.Code)
	}
}

func TestHandler_Tail(t *testing.T) {
	store := memory.NewBlobStore()
	_ = store.Put(t.Context(), "E001/2024-03-01.ndjson", []byte("{\"a\":1}\n"))

	rec := serve(t, NewService(store, nil, nil), httptest.NewRequest(http.MethodGet, "/formlog/tail?code=E001", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res TailResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Count != 1 || len(res.Items) != 1 || string(res.Items[0].Tail[0]) != `{"a":1}` {
		t.Fatalf("res = %+v", res)
	}

	rec = serve(t, NewService(brokenReader{}, nil, nil), httptest.NewRequest(http.MethodGet, "/formlog/tail", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("broken store: status = %d", rec.Code)
	}
}
