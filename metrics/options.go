package metrics

import (
	promclient "github.com/prometheus/client_golang/prometheus"

	"github.com/ceyewan/flake/clog"
)

// Option 配置 Meter 实例的选项函数
type Option func(*options)

type options struct {
	logger   clog.Logger
	registry *promclient.Registry
}

// WithLogger 注入日志记录器，自动追加 "metrics" 命名空间
func WithLogger(logger clog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.WithNamespace("metrics")
		}
	}
}

// WithRegistry 指定 Prometheus 注册表，默认每个 Meter 独立创建
func WithRegistry(reg *promclient.Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}
