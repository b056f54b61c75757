package idgen

import (
	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/connector"
	"github.com/ceyewan/flake/metrics"
)

// Option 组件初始化选项
type Option func(*options)

type options struct {
	logger    clog.Logger
	meter     metrics.Meter
	clock     Clock
	smoothing bool

	redisConn connector.RedisConnector
	etcdConn  connector.EtcdConnector
}

func defaultOptions() *options {
	return &options{
		logger:    clog.Discard(),
		meter:     metrics.Discard(),
		clock:     SystemClock{},
		smoothing: true,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger 设置 Logger，组件会追加 component=idgen 字段
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMeter 设置 Meter
func WithMeter(meter metrics.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithClock 替换时间源，主要用于测试
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSmoothing 开关过载平滑，默认开启。关闭后唯一性与有序性不变
func WithSmoothing(enabled bool) Option {
	return func(o *options) {
		o.smoothing = enabled
	}
}

// WithRedisConnector 为 redis 分配器注入连接器
func WithRedisConnector(conn connector.RedisConnector) Option {
	return func(o *options) {
		o.redisConn = conn
	}
}

// WithEtcdConnector 为 etcd 分配器注入连接器
func WithEtcdConnector(conn connector.EtcdConnector) Option {
	return func(o *options) {
		o.etcdConn = conn
	}
}
