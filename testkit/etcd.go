package testkit

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tcetcd "github.com/testcontainers/testcontainers-go/modules/etcd"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/flake/connector"
)

// NewEtcdContainerConfig 启动 etcd 容器并返回配置，生命周期由 t.Cleanup 管理
//
// 设置 FLAKE_TEST_ETCD_ENDPOINTS（逗号分隔）时直接使用已有集群
func NewEtcdContainerConfig(t *testing.T) *connector.EtcdConfig {
	SkipIfShort(t)

	cfg := &connector.EtcdConfig{
		Name:        "test-etcd",
		DialTimeout: 5 * time.Second,
	}
	if eps := os.Getenv("FLAKE_TEST_ETCD_ENDPOINTS"); eps != "" {
		cfg.Endpoints = strings.Split(eps, ",")
		return cfg
	}

	ctx := context.Background()
	container, err := tcetcd.Run(ctx, "quay.io/coreos/etcd:v3.5.9")
	require.NoError(t, err, "failed to start etcd container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "2379/tcp")
	require.NoError(t, err)

	cfg.Endpoints = []string{host + ":" + port.Port()}
	return cfg
}

// NewEtcdConnector 创建并连接 Etcd 连接器
func NewEtcdConnector(t *testing.T) connector.EtcdConnector {
	cfg := NewEtcdContainerConfig(t)

	conn, err := connector.NewEtcd(cfg, connector.WithLogger(NewLogger()))
	require.NoError(t, err, "failed to create etcd connector")
	require.NoError(t, conn.Connect(context.Background()), "failed to connect to etcd")

	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// NewEtcdClient 返回原生客户端
func NewEtcdClient(t *testing.T) *clientv3.Client {
	return NewEtcdConnector(t).GetClient()
}
