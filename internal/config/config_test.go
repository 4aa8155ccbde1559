package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/lock"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, 0, cfg.RemoteStoreMaxRetries)
	assert.Equal(t, 3*time.Second, cfg.NoticeDuration)
	assert.Equal(t, lock.ModeLocal, cfg.LockMode())
	assert.False(t, cfg.NeedsRedis())
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("STOREFRONT_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_StoreBackends(t *testing.T) {
	t.Run("rest needs url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "rest")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REMOTE_STORE_URL")
	})

	t.Run("postgres needs database url", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "postgres")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "sqlite")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORE_BACKEND")
	})

	t.Run("rest configured", func(t *testing.T) {
		t.Setenv("STORE_BACKEND", "rest")
		t.Setenv("REMOTE_STORE_URL", "https://project.example.com")
		t.Setenv("REMOTE_STORE_API_KEY", "anon-key")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "anon-key", cfg.RemoteStoreAPIKey)
	})
}

func TestLockTTL_CoversSlowestCriticalSection(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		lockTTL time.Duration
		request time.Duration
		remote  time.Duration
		want    time.Duration
	}{
		{"configured ttl wins", StoreMemory, time.Minute, 30 * time.Second, 10 * time.Second, time.Minute},
		{"request timeout", StoreMemory, 5 * time.Second, 30 * time.Second, 10 * time.Second, 30 * time.Second},
		{"two rest calls", StoreREST, 5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second},
		{"remote timeout ignored for postgres", StorePostgres, 5 * time.Second, 10 * time.Second, 20 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StoreBackend:       tt.backend,
				LineLockTTL:        tt.lockTTL,
				RequestTimeout:     tt.request,
				RemoteStoreTimeout: tt.remote,
			}
			assert.Equal(t, tt.want, cfg.LockTTL())
		})
	}
}

func TestLoad_RedisRequiredForRedisLocks(t *testing.T) {
	t.Setenv("LINE_LOCK_MODE", "redis")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoad_InvalidLockMode(t *testing.T) {
	t.Setenv("LINE_LOCK_MODE", "global")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_DevSecretRejectedOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a-real-production-secret")
	_, err = Load()
	require.NoError(t, err)
}

func TestLoad_InvalidOTELSampleRate(t *testing.T) {
	t.Setenv("OTEL_SAMPLE_RATE", "2.0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
}

func TestLoad_KafkaBrokersList(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}
