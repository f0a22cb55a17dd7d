package http_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/homie-data/internal/adapter/http"
	"github.com/couchcryptid/homie-data/internal/adapter/remote"
	"github.com/couchcryptid/homie-data/internal/adapter/stub"
	"github.com/couchcryptid/homie-data/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error, api http.Handler) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, api, discardLogger())
}

func serve(srv http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(nil, nil), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(nil, nil), http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(fmt.Errorf("ingestion has not finished yet"), nil), http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(nil, nil), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPINotMountedByDefault(t *testing.T) {
	rec := serve(newTestServer(nil, nil), http.MethodGet, "/api/regions/92602", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIMountedUnderPrefix(t *testing.T) {
	store := stub.New()
	require.NoError(t, store.CreateRegion(context.Background(), domain.Region{City: "irvine", Zipcode: "92602"}))
	srv := newTestServer(nil, remote.NewHandler(store, discardLogger()))

	rec := serve(srv, http.MethodGet, "/api/regions/92602", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"city":"irvine","zipcode":"92602"}`, rec.Body.String())

	rec = serve(srv, http.MethodPost, "/api/regions/query", strings.NewReader(`{"filter":{"op":"true"}}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"city":"irvine","zipcode":"92602"}]`, rec.Body.String())

	rec = serve(srv, http.MethodGet, "/api/regions/00000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
