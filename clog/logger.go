// Package clog 为 flake 提供基于 slog 的结构化日志组件。
//
// 特性：
//   - 抽象接口，不暴露底层实现（slog）
//   - 层级命名空间，如 "flake.idgen"
//   - 从 Context 中提取 trace_id 等字段
//   - 函数式选项
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stdout",
//	})
//	logger.Info("generator created", clog.Int64("node_id", 7))
package clog

import "context"

// Logger 日志接口
//
// 创建子 Logger：
//
//	child := logger.With(clog.String("component", "idgen"))
//	scoped := logger.WithNamespace("allocator")
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// 带 Context 的版本会自动提取 WithContextField 配置的字段
	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)
	FatalContext(ctx context.Context, msg string, fields ...Field)

	// With 创建带预设字段的子 Logger
	With(fields ...Field) Logger

	// WithNamespace 追加命名空间，以 "." 连接
	WithNamespace(parts ...string) Logger

	// SetLevel 运行时调整日志级别，对共享同一 handler 的 Logger 全部生效
	SetLevel(level Level) error

	// Flush 同步缓冲区
	Flush()
}
