package metrics

import (
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Label 指标标签，用于多维度分组
//
// 避免高基数标签，例如请求 ID、生成出的 ID 本身
type Label struct {
	Key   string
	Value string
}

// L 便捷构造函数
//
//	counter.Inc(ctx, metrics.L("code", "clock_went_back"))
func L(key, value string) Label {
	return Label{Key: key, Value: value}
}

func toAttributes(labels []Label) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for _, l := range labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}
	return attrs
}

// labelKey 生成与顺序无关的标签组合键
func labelKey(labels []Label) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, l.Key+"="+l.Value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
