package repository

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/homie-data/internal/adapter/database"
	"github.com/couchcryptid/homie-data/internal/adapter/remote"
	"github.com/couchcryptid/homie-data/internal/adapter/stub"
	"github.com/couchcryptid/homie-data/internal/config"
	"github.com/couchcryptid/homie-data/internal/domain"
	"github.com/couchcryptid/homie-data/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func open(t *testing.T, cfg *config.Config) (Repository, error) {
	t.Helper()
	repo, err := Open(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())
	if repo != nil {
		t.Cleanup(func() { _ = repo.Close() })
	}
	return repo, err
}

func TestOpen_Stub(t *testing.T) {
	repo, err := open(t, &config.Config{Backend: config.BackendStub})
	require.NoError(t, err)
	assert.IsType(t, &stub.Store{}, repo)
	require.NoError(t, repo.CheckReadiness(context.Background()))
}

func TestOpen_Database(t *testing.T) {
	repo, err := open(t, &config.Config{
		Backend:          config.BackendDatabase,
		DatabaseURL:      "sqlite://" + filepath.Join(t.TempDir(), "homie.db"),
		DatabaseMaxConns: 2,
	})
	require.NoError(t, err)
	assert.IsType(t, &database.Store{}, repo)

	ctx := context.Background()
	require.NoError(t, repo.CreateRegion(ctx, domain.Region{City: "irvine", Zipcode: "92602"}))
	got, err := repo.ReadRegion(ctx, "92602")
	require.NoError(t, err)
	assert.Equal(t, "irvine", got.City)
}

func TestOpen_Remote(t *testing.T) {
	srv := httptest.NewServer(remote.NewHandler(stub.New(), discardLogger()))
	defer srv.Close()

	repo, err := open(t, &config.Config{
		Backend:         config.BackendRemote,
		RemoteBaseURL:   srv.URL,
		RemoteTimeout:   time.Second,
		RemoteCacheSize: 10,
	})
	require.NoError(t, err)
	assert.IsType(t, &remote.Client{}, repo)
	require.NoError(t, repo.CheckReadiness(context.Background()))
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
		want error
	}{
		{name: "nil config", cfg: nil, want: domain.ErrConfig},
		{name: "unknown backend", cfg: &config.Config{Backend: "mongo"}, want: domain.ErrConfig},
		{name: "database without url", cfg: &config.Config{Backend: config.BackendDatabase}, want: domain.ErrConfig},
		{name: "unsupported scheme", cfg: &config.Config{Backend: config.BackendDatabase, DatabaseURL: "mysql://localhost/homie"}, want: domain.ErrConfig},
		{name: "remote without url", cfg: &config.Config{Backend: config.BackendRemote}, want: domain.ErrConfig},
		{name: "unreachable database", cfg: &config.Config{
			Backend:     config.BackendDatabase,
			DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "missing", "dir", "homie.db"),
		}, want: domain.ErrDatabase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := open(t, tt.cfg)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, repo)
		})
	}
}
