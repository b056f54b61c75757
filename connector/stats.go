package connector

import (
	"context"

	"github.com/ceyewan/flake/metrics"
)

// connStats 连接器公共指标，按 connector 类型和实例名打标签
type connStats struct {
	attempts metrics.Counter
	failures metrics.Counter
	active   metrics.Gauge
	labels   []metrics.Label
}

func newConnStats(meter metrics.Meter, kind, name string) (*connStats, error) {
	attempts, err := meter.Counter("connector_connect_attempts_total", "Connector connect attempts")
	if err != nil {
		return nil, err
	}
	failures, err := meter.Counter("connector_connect_failures_total", "Connector connect failures")
	if err != nil {
		return nil, err
	}
	active, err := meter.Gauge("connector_active", "Whether the connector is currently connected")
	if err != nil {
		return nil, err
	}
	return &connStats{
		attempts: attempts,
		failures: failures,
		active:   active,
		labels:   []metrics.Label{metrics.L("connector", kind), metrics.L("name", name)},
	}, nil
}

func (s *connStats) attempt(ctx context.Context) { s.attempts.Inc(ctx, s.labels...) }

func (s *connStats) failed(ctx context.Context) { s.failures.Inc(ctx, s.labels...) }

func (s *connStats) setActive(ctx context.Context, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	s.active.Set(ctx, v, s.labels...)
}
