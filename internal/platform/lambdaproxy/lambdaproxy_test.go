package lambdaproxy

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayRequest(method, path, query, body string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{
		RawPath:        path,
		RawQueryString: query,
		Body:           body,
		Headers:        map[string]string{"content-type": "application/json", "user-agent": "sam-local"},
	}
	req.RequestContext.HTTP.Method = method
	req.RequestContext.HTTP.SourceIP = "198.51.100.4"
	req.RequestContext.DomainName = "stats.example"
	return req
}

func TestHandler_TranslatesRequestAndResponse(t *testing.T) {
	var seen *http.Request
	var seenBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "a=1")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	res, err := Handler(h)(context.Background(), gatewayRequest(http.MethodPost, "/formlog", "debug=1", `{"code":"E001"}`))
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/formlog", seen.URL.Path)
	assert.Equal(t, "1", seen.URL.Query().Get("debug"))
	assert.Equal(t, "sam-local", seen.Header.Get("User-Agent"))
	assert.Equal(t, "198.51.100.4:0", seen.RemoteAddr)
	assert.Equal(t, "stats.example", seen.Host)
	assert.Equal(t, `{"code":"E001"}`, seenBody)

	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, res.Body)
	assert.False(t, res.IsBase64Encoded)
	assert.Equal(t, "application/json", res.Headers["Content-Type"])
	assert.Equal(t, []string{"a=1"}, res.Cookies)
}

func TestHandler_Base64Body(t *testing.T) {
	var got string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{0x00, 0xff})
	})

	req := gatewayRequest(http.MethodPost, "/formlog", "", base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)))
	req.IsBase64Encoded = true

	res, err := Handler(h)(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)
	assert.True(t, res.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte{0x00, 0xff}), res.Body)
}

func TestHandler_BadBase64Is400(t *testing.T) {
	req := gatewayRequest(http.MethodPost, "/formlog", "", "%%%")
	req.IsBase64Encoded = true

	res, err := Handler(http.NotFoundHandler())(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHandler_ImplicitStatusAndPathFallback(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte("ok"))
	})
	req := gatewayRequest(http.MethodGet, "", "", "")
	req.RequestContext.HTTP.Path = "/health"

	res, err := Handler(h)(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", res.Body)
}
