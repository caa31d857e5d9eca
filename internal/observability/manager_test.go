package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Additional-Code/ventas/internal/config"
	"github.com/Additional-Code/ventas/internal/database/dbtest"
)

func TestNew_Disabled(t *testing.T) {
	mgr, err := New(context.Background(), config.Observability{ServiceName: "ventas-api"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
	assert.NoError(t, RegisterDBStats(mgr, dbtest.Open(t)))
	assert.NoError(t, mgr.Shutdown(context.Background()))
}

func TestNew_PrometheusServesRegistry(t *testing.T) {
	cfg := config.Observability{
		ServiceName:     "ventas-api",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}
	mgr, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	require.True(t, mgr.MetricsEnabled())
	require.NoError(t, RegisterDBStats(mgr, dbtest.Open(t)))

	counter, err := mgr.meterProvider.Meter("test").Int64Counter("orders_created")
	require.NoError(t, err)
	counter.Add(context.Background(), 2, metric.WithAttributes())

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "orders_created_total")
	assert.Contains(t, body, "go_sql_open_connections")
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_UnknownExportersAreIgnored(t *testing.T) {
	cfg := config.Observability{
		EnableTracing:   true,
		TraceExporter:   "zipkin",
		EnableMetrics:   true,
		MetricsExporter: "statsd",
	}
	mgr, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mgr.TracingEnabled())
	assert.False(t, mgr.MetricsEnabled())
}

func TestNew_OTLPRequiresEndpoint(t *testing.T) {
	_, err := New(context.Background(), config.Observability{EnableTracing: true, TraceExporter: "otlp"}, zap.NewNop())
	assert.ErrorContains(t, err, "OBS_OTLP_ENDPOINT")
}
