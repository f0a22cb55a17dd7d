package observability

import (
	"context"
	"log/slog"
	"testing"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessLogger_Level(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	ctx := context.Background()

	debug := sharedobs.NewLogger("debug", "text")
	assert.True(t, debug.Enabled(ctx, slog.LevelDebug))

	warn := sharedobs.NewLogger("WARN", "json")
	assert.False(t, warn.Enabled(ctx, slog.LevelInfo))
	assert.True(t, warn.Enabled(ctx, slog.LevelWarn))

	fallback := sharedobs.NewLogger("bogus", "json")
	assert.False(t, fallback.Enabled(ctx, slog.LevelDebug))
	assert.True(t, fallback.Enabled(ctx, slog.LevelInfo))
}

func TestMetrics_Register(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.RecordsRead.WithLabelValues("region").Add(3)
	m.BackendErrors.WithLabelValues("database", "hpi", "create").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(m.RecordsRead.WithLabelValues("region")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BackendErrors.WithLabelValues("database", "hpi", "create")), 0)

	// A second registration of the same collectors is rejected.
	assert.Error(t, m.Register(reg))
}
