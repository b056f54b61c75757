package connector

import (
	"context"
	"sync"
	"sync/atomic"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/xerrors"
)

const etcdProbeKey = "flake/health-check"

type etcdConnector struct {
	cfg     *EtcdConfig
	logger  clog.Logger
	stats   *connStats
	mu      sync.RWMutex
	client  *clientv3.Client
	closed  bool
	healthy atomic.Bool
}

// NewEtcd 创建 Etcd 连接器，客户端在 Connect 时创建
func NewEtcd(cfg *EtcdConfig, opts ...Option) (EtcdConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "etcd config is nil")
	}
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	stats, err := newConnStats(o.meter, "etcd", cfg.Name)
	if err != nil {
		return nil, xerrors.Wrapf(err, "create etcd connector metrics")
	}

	return &etcdConnector{
		cfg:    cfg,
		logger: o.logger.With(clog.String("connector", "etcd"), clog.String("name", cfg.Name)),
		stats:  stats,
	}, nil
}

func (c *etcdConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAlreadyClosed
	}
	if c.client != nil && c.healthy.Load() {
		return nil
	}

	c.stats.attempt(ctx)
	c.logger.Info("connecting to etcd", clog.Any("endpoints", c.cfg.Endpoints))

	if c.client == nil {
		client, err := clientv3.New(clientv3.Config{
			Endpoints:            c.cfg.Endpoints,
			Username:             c.cfg.Username,
			Password:             c.cfg.Password,
			DialTimeout:          c.cfg.DialTimeout,
			DialKeepAliveTime:    c.cfg.KeepAliveTime,
			DialKeepAliveTimeout: c.cfg.KeepAliveTimeout,
			Context:              context.WithoutCancel(ctx),
		})
		if err != nil {
			c.stats.failed(ctx)
			c.logger.Error("failed to create etcd client", clog.Error(err))
			return xerrors.Wrapf(xerrors.Combine(ErrConnection, err), "etcd connector[%s]", c.cfg.Name)
		}
		c.client = client
	}

	if err := c.probe(ctx); err != nil {
		c.stats.failed(ctx)
		c.logger.Error("failed to connect to etcd", clog.Error(err))
		return xerrors.Wrapf(xerrors.Combine(ErrConnection, err), "etcd connector[%s]", c.cfg.Name)
	}

	c.healthy.Store(true)
	c.stats.setActive(ctx, true)
	c.logger.Info("connected to etcd", clog.Any("endpoints", c.cfg.Endpoints))
	return nil
}

// probe 读取一个不存在的 key，key 缺失不算失败
func (c *etcdConnector) probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	_, err := c.client.Get(probeCtx, etcdProbeKey)
	return err
}

func (c *etcdConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.healthy.Store(false)
	c.stats.setActive(context.Background(), false)

	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		c.logger.Error("failed to close etcd connection", clog.Error(err))
		return err
	}
	c.logger.Info("etcd connection closed")
	return nil
}

func (c *etcdConnector) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	client, closed := c.client, c.closed
	c.mu.RUnlock()

	if closed {
		return ErrAlreadyClosed
	}
	if client == nil {
		return ErrNotConnected
	}

	if err := c.probe(ctx); err != nil {
		c.healthy.Store(false)
		c.logger.Warn("etcd health check failed", clog.Error(err))
		return xerrors.Wrapf(xerrors.Combine(ErrHealthCheck, err), "etcd connector[%s]", c.cfg.Name)
	}
	c.healthy.Store(true)
	return nil
}

func (c *etcdConnector) IsHealthy() bool {
	return c.healthy.Load()
}

func (c *etcdConnector) Name() string {
	return c.cfg.Name
}

func (c *etcdConnector) GetClient() *clientv3.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
