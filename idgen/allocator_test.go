package idgen

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/connector"
	"github.com/ceyewan/flake/xerrors"
)

func TestNewAllocatorConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *AllocatorConfig
		wantErr error
		code    string
	}{
		{name: "nil config", cfg: nil, wantErr: ErrInvalidInput, code: "config_nil"},
		{name: "unknown driver", cfg: &AllocatorConfig{Driver: "zookeeper"}, wantErr: ErrInvalidInput, code: "unsupported_driver"},
		{name: "static node too large", cfg: &AllocatorConfig{Driver: "static", NodeID: 1024}, wantErr: ErrNodeIDTooLarge},
		{name: "static negative node", cfg: &AllocatorConfig{Driver: "static", NodeID: -3}, wantErr: ErrNodeIDTooLarge, code: CodeNodeIDNegative},
		{name: "max id out of range", cfg: &AllocatorConfig{Driver: "ip", MaxID: 2048}, wantErr: ErrInvalidInput, code: "max_id_out_of_range"},
		{name: "ttl too short", cfg: &AllocatorConfig{Driver: "ip", TTL: 2}, wantErr: ErrInvalidInput, code: "ttl_too_short"},
		{name: "redis without connector", cfg: &AllocatorConfig{Driver: "redis"}, wantErr: ErrConnectorNil},
		{name: "etcd without connector", cfg: &AllocatorConfig{Driver: "etcd"}, wantErr: ErrConnectorNil},
		{name: "static default", cfg: &AllocatorConfig{}},
		{name: "ip", cfg: &AllocatorConfig{Driver: "ip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc, err := NewAllocator(tt.cfg)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, alloc)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.code != "" {
				assert.Equal(t, tt.code, xerrors.GetCode(err))
			}
		})
	}
}

func TestAllocatorConfigDefaults(t *testing.T) {
	cfg := &AllocatorConfig{}
	cfg.setDefaults()
	assert.Equal(t, "static", cfg.Driver)
	assert.Equal(t, "flake:idgen:worker", cfg.KeyPrefix)
	assert.Equal(t, 1024, cfg.MaxID)
	assert.Equal(t, 30, cfg.TTL)
}

func TestStaticAllocator(t *testing.T) {
	alloc, err := NewAllocator(&AllocatorConfig{Driver: "static", NodeID: 77})
	require.NoError(t, err)
	defer alloc.Stop()

	id, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)

	select {
	case err := <-alloc.KeepAlive(context.Background()):
		t.Fatalf("static keep alive should never report, got %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	alloc.Stop()
}

func TestIPAllocator(t *testing.T) {
	addrs := func() ([]net.Addr, error) {
		return []net.Addr{
			&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
			&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
			&net.IPNet{IP: net.ParseIP("10.1.2.203"), Mask: net.CIDRMask(24, 32)},
			&net.IPNet{IP: net.ParseIP("10.1.3.4"), Mask: net.CIDRMask(24, 32)},
		}, nil
	}
	alloc := &ipAllocator{logger: clog.Discard(), addrs: addrs}

	id, err := alloc.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(203), id)

	gen, err := New(id, DefaultEpoch)
	require.NoError(t, err)
	assert.Equal(t, int64(203), gen.NodeID())
}

func TestIPAllocatorNoIPv4(t *testing.T) {
	alloc := &ipAllocator{logger: clog.Discard(), addrs: func() ([]net.Addr, error) {
		return []net.Addr{&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)}}, nil
	}}
	_, err := alloc.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrWorkerIDExhausted)
	assert.Equal(t, "no_ipv4", xerrors.GetCode(err))

	lookupErr := errors.New("interfaces unavailable")
	alloc.addrs = func() ([]net.Addr, error) { return nil, lookupErr }
	_, err = alloc.Allocate(context.Background())
	assert.ErrorIs(t, err, lookupErr)
}

func TestRedisAllocatorKeepAliveBeforeAllocate(t *testing.T) {
	conn, err := connector.NewRedis(&connector.RedisConfig{Addr: "127.0.0.1:1"})
	require.NoError(t, err)
	defer conn.Close()

	alloc, err := NewAllocator(&AllocatorConfig{Driver: "redis"}, WithRedisConnector(conn))
	require.NoError(t, err)

	select {
	case err := <-alloc.KeepAlive(context.Background()):
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, "not_allocated", xerrors.GetCode(err))
	case <-time.After(time.Second):
		t.Fatal("expected keep alive error")
	}

	// 未分配时 Stop 不访问 Redis
	alloc.Stop()
	alloc.Stop()
}

func TestEtcdAllocatorNotConnected(t *testing.T) {
	conn, err := connector.NewEtcd(&connector.EtcdConfig{Endpoints: []string{"127.0.0.1:1"}})
	require.NoError(t, err)
	defer conn.Close()

	alloc, err := NewAllocator(&AllocatorConfig{Driver: "etcd"}, WithEtcdConnector(conn))
	require.NoError(t, err)

	_, err = alloc.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrConnectorNil)
	alloc.Stop()
}
