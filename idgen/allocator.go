package idgen

import (
	"context"
	"net"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/xerrors"
)

// Allocator 在创建生成器之前为实例选出一个节点 ID。
// 生成器本身从不协商节点 ID，唯一性完全依赖各实例使用不同的 ID。
type Allocator interface {
	// Allocate 分配节点 ID
	Allocate(ctx context.Context) (int64, error)

	// KeepAlive 后台续约，续约失败时向返回的通道发送一个错误；
	// 无需续约的实现返回一个永不发送的通道
	KeepAlive(ctx context.Context) <-chan error

	// Stop 停止续约并释放节点 ID，可重复调用
	Stop()
}

// NewAllocator 按 cfg.Driver 创建分配器
//
//	alloc, _ := idgen.NewAllocator(&idgen.AllocatorConfig{Driver: "redis"},
//	    idgen.WithRedisConnector(redisConn), idgen.WithLogger(logger))
//	nodeID, err := alloc.Allocate(ctx)
//	defer alloc.Stop()
//
//	go func() {
//	    if err := <-alloc.KeepAlive(ctx); err != nil {
//	        // 节点 ID 可能已被其他实例占用，应停止发号
//	    }
//	}()
func NewAllocator(cfg *AllocatorConfig, opts ...Option) (Allocator, error) {
	if cfg == nil {
		return nil, xerrors.WithCode(ErrInvalidInput, "config_nil")
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	logger := o.logger.With(clog.String("component", "idgen.allocator"), clog.String("driver", cfg.Driver))

	switch cfg.Driver {
	case "static":
		return &staticAllocator{nodeID: cfg.NodeID}, nil
	case "ip":
		return &ipAllocator{logger: logger}, nil
	case "redis":
		if o.redisConn == nil {
			return nil, xerrors.WithCode(ErrConnectorNil, "redis_connector_required")
		}
		return newRedisAllocator(cfg, o.redisConn, logger), nil
	case "etcd":
		if o.etcdConn == nil {
			return nil, xerrors.WithCode(ErrConnectorNil, "etcd_connector_required")
		}
		return newEtcdAllocator(cfg, o.etcdConn, logger), nil
	}
	return nil, xerrors.WithCode(ErrInvalidInput, "unsupported_driver")
}

// staticAllocator 返回配置中的固定节点 ID
type staticAllocator struct {
	nodeID int64
}

func (a *staticAllocator) Allocate(context.Context) (int64, error) { return a.nodeID, nil }

func (a *staticAllocator) KeepAlive(context.Context) <-chan error { return make(chan error) }

func (a *staticAllocator) Stop() {}

// ipAllocator 取第一个非回环 IPv4 地址的最后一段，范围 [0, 255]
type ipAllocator struct {
	logger clog.Logger
	addrs  func() ([]net.Addr, error)
}

func (a *ipAllocator) Allocate(context.Context) (int64, error) {
	lookup := a.addrs
	if lookup == nil {
		lookup = net.InterfaceAddrs
	}
	ip, err := firstIPv4(lookup)
	if err != nil {
		return 0, xerrors.Wrap(err, "idgen: get local ip")
	}
	id := int64(ip[3])
	a.logger.Info("node id derived from ip", clog.String("ip", ip.String()), clog.Int64("node_id", id))
	return id, nil
}

func (a *ipAllocator) KeepAlive(context.Context) <-chan error { return make(chan error) }

func (a *ipAllocator) Stop() {}

func firstIPv4(lookup func() ([]net.Addr, error)) (net.IP, error) {
	addrs, err := lookup()
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil {
			return ip, nil
		}
	}
	return nil, xerrors.WithCode(xerrors.Wrap(ErrWorkerIDExhausted, "no non-loopback ipv4 address"), "no_ipv4")
}
