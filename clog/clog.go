package clog

import "fmt"

// New 创建一个新的 Logger 实例
//
// config - 日志配置，为 nil 时使用开发环境默认配置
// opts   - 函数式选项，用于命名空间、Context 字段等
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDevDefaultConfig("")
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return newLogger(config, applyOptions(opts...))
}

// Must 类似 New，出错时 panic，仅用于程序初始化
func Must(config *Config, opts ...Option) Logger {
	logger, err := New(config, opts...)
	if err != nil {
		panic(err)
	}
	return logger
}
