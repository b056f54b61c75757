package connector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/metrics"
	"github.com/ceyewan/flake/xerrors"
)

func TestRedisConfigDefaults(t *testing.T) {
	cfg := &RedisConfig{Addr: "127.0.0.1:6379", MinIdleConns: -1}
	cfg.setDefaults()
	require.NoError(t, cfg.validate())

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 0, cfg.MinIdleConns)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
}

func TestRedisConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  RedisConfig
	}{
		{name: "missing addr", cfg: RedisConfig{}},
		{name: "negative db", cfg: RedisConfig{Addr: "127.0.0.1:6379", DB: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
			assert.Equal(t, "connector_config", xerrors.GetCode(err))
		})
	}
}

func TestEtcdConfigValidate(t *testing.T) {
	assert.ErrorIs(t, (&EtcdConfig{}).validate(), ErrConfig)
	assert.ErrorIs(t, (&EtcdConfig{Endpoints: []string{""}}).validate(), ErrConfig)

	cfg := &EtcdConfig{Endpoints: []string{"127.0.0.1:2379"}}
	cfg.setDefaults()
	require.NoError(t, cfg.validate())
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.KeepAliveTime)
	assert.Equal(t, 3*time.Second, cfg.KeepAliveTimeout)
}

func TestNewRedisDoesNotDial(t *testing.T) {
	conn, err := NewRedis(&RedisConfig{Name: "cache", Addr: "127.0.0.1:1"},
		WithLogger(clog.Discard()), WithMeter(metrics.Discard()))
	require.NoError(t, err)

	assert.Equal(t, "cache", conn.Name())
	assert.False(t, conn.IsHealthy())
	assert.NotNil(t, conn.GetClient())

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Connect(context.Background()), ErrAlreadyClosed)
	assert.ErrorIs(t, conn.HealthCheck(context.Background()), ErrAlreadyClosed)
}

func TestRedisConnectFailure(t *testing.T) {
	conn, err := NewRedis(&RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = conn.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
	assert.False(t, conn.IsHealthy())
}

func TestNewEtcdLazyClient(t *testing.T) {
	conn, err := NewEtcd(&EtcdConfig{Name: "lease", Endpoints: []string{"127.0.0.1:2379"}})
	require.NoError(t, err)

	assert.Equal(t, "lease", conn.Name())
	assert.Nil(t, conn.GetClient())
	assert.ErrorIs(t, conn.HealthCheck(context.Background()), ErrNotConnected)
	require.NoError(t, conn.Close())
}

func TestNilConfig(t *testing.T) {
	_, err := NewRedis(nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewEtcd(nil)
	assert.ErrorIs(t, err, ErrConfig)
}
