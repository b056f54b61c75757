package testkit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/ceyewan/flake/connector"
)

// NewRedisContainerConfig 启动 redis 容器并返回配置，生命周期由 t.Cleanup 管理
//
// 设置 FLAKE_TEST_REDIS_ADDR 时直接使用已有实例
func NewRedisContainerConfig(t *testing.T) *connector.RedisConfig {
	SkipIfShort(t)

	cfg := &connector.RedisConfig{
		Name:         "test-redis",
		DB:           1,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if addr := os.Getenv("FLAKE_TEST_REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
		return cfg
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	cfg.Addr = host + ":" + port.Port()
	return cfg
}

// NewRedisConnector 创建并连接 Redis 连接器
func NewRedisConnector(t *testing.T) connector.RedisConnector {
	cfg := NewRedisContainerConfig(t)

	conn, err := connector.NewRedis(cfg, connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create redis connector")
	require.NoError(t, conn.Connect(context.Background()), "failed to connect to redis")

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// NewRedisClient 返回原生客户端
func NewRedisClient(t *testing.T) *redis.Client {
	return NewRedisConnector(t).GetClient()
}
