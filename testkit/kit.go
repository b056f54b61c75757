// Package testkit 提供测试共用的依赖：logger、meter、带超时的 ctx，以及基于
// testcontainers 的 Redis、Etcd 连接器。
package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/metrics"
)

// Kit 包含通用的测试依赖
type Kit struct {
	Ctx    context.Context
	Logger clog.Logger
	Meter  metrics.Meter
}

// NewKit 返回默认测试依赖，ctx 在测试结束时取消
func NewKit(t *testing.T) *Kit {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	meter := NewMeter()
	t.Cleanup(func() { _ = meter.Shutdown(context.Background()) })

	return &Kit{
		Ctx:    ctx,
		Logger: NewLogger(),
		Meter:  meter,
	}
}

// NewLogger 开发环境格式输出，便于本地调试
func NewLogger() clog.Logger {
	logger, err := clog.New(clog.NewDevDefaultConfig("flake"))
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewMeter 启用指标但不暴露端口
func NewMeter() metrics.Meter {
	meter, err := metrics.New(metrics.NewDevDefaultConfig("flake-test"))
	if err != nil {
		return metrics.Discard()
	}
	return meter
}

// NewContext 返回带超时的测试上下文
func NewContext(t *testing.T, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NewID 返回 UUID v4 前 8 位，用作 key 前缀避免测试间冲突
func NewID() string {
	return uuid.New().String()[0:8]
}

// SkipIfShort 需要 Docker 的测试在 -short 下跳过
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
}
