// Package metrics 为 flake 提供统一的指标收集能力。
// 基于 OpenTelemetry 构建，通过 Prometheus exporter 暴露 Counter、Gauge、Histogram。
//
// 快速开始：
//
//	meter, err := metrics.New(&metrics.Config{
//	    Enabled:     true,
//	    ServiceName: "flake",
//	    Port:        9090,
//	    Path:        "/metrics",
//	})
//	if err != nil {
//	    return err
//	}
//	defer meter.Shutdown(ctx)
//
//	generated, _ := meter.Counter("idgen_snowflake_generated_total", "已生成的 ID 数量")
//	generated.Inc(ctx, metrics.L("node_id", "7"))
package metrics

import (
	"context"
	"net/http"
)

// Counter 计数器，只增不减
//
// 典型场景：生成的 ID 总数、错误次数
type Counter interface {
	// Inc 增加 1
	Inc(ctx context.Context, labels ...Label)

	// Add 增加给定值，负数会被忽略
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 仪表盘，记录可任意增减的瞬时值
//
// 典型场景：当前节点 ID、活跃 worker 数量
type Gauge interface {
	// Set 覆盖当前值
	Set(ctx context.Context, val float64, labels ...Label)

	// Inc 等价于 Set(current + 1)
	Inc(ctx context.Context, labels ...Label)

	// Dec 等价于 Set(current - 1)
	Dec(ctx context.Context, labels ...Label)
}

// Histogram 直方图，记录值的分布
//
//	h, _ := meter.Histogram("idgen_snowflake_wait_seconds", "等待下一毫秒的耗时", metrics.WithUnit("s"))
//	h.Record(ctx, 0.0004)
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标创建工厂，创建的指标可在多个 goroutine 中并发使用
type Meter interface {
	Counter(name string, desc string, opts ...MetricOption) (Counter, error)

	Gauge(name string, desc string, opts ...MetricOption) (Gauge, error)

	Histogram(name string, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 格式的采集 Handler，noop 实现返回 404
	Handler() http.Handler

	// Shutdown 关闭 HTTP 服务器并刷新指标，通常在程序退出时调用
	Shutdown(ctx context.Context) error
}

// MetricOption 指标选项
type MetricOption func(*MetricOptions)

// MetricOptions 指标选项结构体
type MetricOptions struct {
	// Unit UCUM 单位代码，例如 "s"、"By"、"{id}"
	Unit string

	// Buckets 直方图桶边界，仅 Histogram 使用
	Buckets []float64
}

// WithUnit 设置指标单位
func WithUnit(unit string) MetricOption {
	return func(o *MetricOptions) {
		o.Unit = unit
	}
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets ...float64) MetricOption {
	return func(o *MetricOptions) {
		o.Buckets = buckets
	}
}
