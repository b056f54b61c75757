package idgen

import (
	"context"

	"github.com/ceyewan/flake/metrics"
)

// 指标名称
const (
	// MetricSnowflakeGenerated 成功生成的 ID 总数 (Counter)
	MetricSnowflakeGenerated = "idgen_snowflake_generated_total"

	// MetricSnowflakeErrors 生成失败次数，按错误码打标签 (Counter)
	MetricSnowflakeErrors = "idgen_snowflake_errors_total"

	// MetricSnowflakeOverload 进入过载（同槽位同毫秒冲突）的次数 (Counter)
	MetricSnowflakeOverload = "idgen_snowflake_overload_total"

	// MetricSnowflakeWait 等待下一毫秒的耗时 (Histogram, 秒)
	MetricSnowflakeWait = "idgen_snowflake_wait_seconds"

	// MetricNodeID 当前实例的节点 ID (Gauge)
	MetricNodeID = "idgen_node_id"
)

var waitBuckets = []float64{0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005}

type instruments struct {
	generated metrics.Counter
	errors    metrics.Counter
	overload  metrics.Counter
	wait      metrics.Histogram
	nodeID    metrics.Gauge
	node      metrics.Label
}

func newInstruments(m metrics.Meter, nodeLabel string) (*instruments, error) {
	var (
		inst = &instruments{node: metrics.L("node_id", nodeLabel)}
		err  error
	)
	if inst.generated, err = m.Counter(MetricSnowflakeGenerated, "Snowflake IDs generated"); err != nil {
		return nil, err
	}
	if inst.errors, err = m.Counter(MetricSnowflakeErrors, "Snowflake generation failures"); err != nil {
		return nil, err
	}
	if inst.overload, err = m.Counter(MetricSnowflakeOverload, "Times a sequence slot was reused within one millisecond"); err != nil {
		return nil, err
	}
	if inst.wait, err = m.Histogram(MetricSnowflakeWait, "Time spent waiting for the next millisecond",
		metrics.WithUnit("s"), metrics.WithBuckets(waitBuckets...)); err != nil {
		return nil, err
	}
	if inst.nodeID, err = m.Gauge(MetricNodeID, "Node id of this generator"); err != nil {
		return nil, err
	}
	return inst, nil
}

func (i *instruments) failed(ctx context.Context, code string) {
	i.errors.Inc(ctx, i.node, metrics.L("code", code))
}
