package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/agency-admin/internal/config"
)

func TestNewRedis_PingAndCollectors(t *testing.T) {
	srv := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: srv.Addr()}, zap.NewNop())
	t.Cleanup(r.Close)

	require.NoError(t, r.Ping(context.Background()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(r.Collectors()...)
	count, err := testutil.GatherAndCount(registry, "redis_pool_total_conns", "redis_pool_idle_conns")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilHandlesReportNotConfigured(t *testing.T) {
	var pg *Postgres
	var r *Redis
	assert.Error(t, pg.Ping(context.Background()))
	assert.Error(t, r.Ping(context.Background()))
	assert.Nil(t, pg.PoolHandle())
}

func TestNewPostgres_RequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.EqualError(t, err, "POSTGRES_DSN is required")
}
