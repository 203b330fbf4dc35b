package security

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodyLimitPassesSmallBody(t *testing.T) {
	t.Parallel()

	var captured string
	handler := BodyLimit{Max: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"qty":2}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, `{"qty":2}`, captured)
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	t.Parallel()

	handler := BodyLimit{Max: 5}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("way past the cap")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Contains(t, body, "error")
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	t.Parallel()

	handler := BodyLimit{Max: 5}.Middleware(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("tiny"))
	req.ContentLength = 1 << 20
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
