package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Empty(t, cfg.Database.MigrationsDir)
	assert.Equal(t, time.Minute, cfg.Cache.CatalogTTL)
	assert.Equal(t, "ventas.orders", cfg.Messaging.Kafka.Topic)
}

func TestNew_PortFallback(t *testing.T) {
	t.Setenv("PORT", "4000")
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.HTTP.Port)

	t.Setenv("HTTP_PORT", "5000")
	cfg, err = New()
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.HTTP.Port)
}

func TestNew_DisabledBackendsFallBackToNoop(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
}

func TestNew_Rejects(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown database driver", env: map[string]string{"DB_DRIVER": "oracle"}},
		{name: "empty writer dsn", env: map[string]string{"DB_WRITER_DSN": ""}},
		{name: "invalid http port", env: map[string]string{"HTTP_PORT": "-1"}},
		{name: "unknown cache driver", env: map[string]string{"CACHE_DRIVER": "memcached"}},
		{name: "unknown messaging driver", env: map[string]string{"MESSAGING_DRIVER": "nats"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}

func TestNew_MalformedValuesFailFast(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("CACHE_CATALOG_TTL", "soon")

	_, err := New()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
	assert.Contains(t, err.Error(), "CACHE_CATALOG_TTL")
}

func TestNew_BlankValuesUseDefaults(t *testing.T) {
	t.Setenv("GRPC_PORT", "  ")
	t.Setenv("KAFKA_BROKERS", " , ")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.GRPC.Port)
	assert.Equal(t, []string{"127.0.0.1:9092"}, cfg.Messaging.Kafka.Brokers)
}
