package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("HTTP_PROXY_HEADER", "")
	t.Setenv("HTTP_TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, QueueBackendMemory, cfg.Queue.Backend)
	assert.Equal(t, 5, cfg.Queue.MaxAttempts)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout())
	assert.Equal(t, "Andorinha-Webhooks/1.0", cfg.Webhook.UserAgent)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, "X-Forwarded-For", cfg.App.ProxyHeader)
	assert.Empty(t, cfg.App.TrustedProxyList())
}

func TestAppConfig_TrustedProxyList(t *testing.T) {
	cfg := AppConfig{TrustedProxies: " 10.0.0.1, ,172.16.0.0/12 "}
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxyList())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "RabbitMQ")
	t.Setenv("QUEUE_BASE_BACKOFF_MS", "250")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("APP_PUBLIC_URL", "https://andorinha.com.br/")
	t.Setenv("AUDIT_RETENTION_DAYS", "30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, QueueBackendRabbitMQ, cfg.Queue.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.BaseBackoff())
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "https://andorinha.com.br", cfg.App.PublicBaseURL)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
}

func TestLoad_RejectsUnknownQueueBackend(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "kafka")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvHelpersFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "nope")
	t.Setenv("SOME_BOOL", "maybe")

	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.True(t, getEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, "x", getEnv("UNSET_KEY_FOR_TEST", "x"))
}
