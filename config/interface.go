// Package config 为 flake 提供统一的配置加载，基于 Viper 实现。
//
// 优先级：环境变量 > .env > 环境特定配置（config.<FLAKE_ENV>.yaml） > 基础配置
//
// 基本使用：
//
//	loader, _ := config.New(&config.Config{Name: "flake", Paths: []string{"./configs"}})
//	if err := loader.Load(ctx); err != nil {
//		return err
//	}
//	var app AppConfig
//	_ = loader.Unmarshal(&app)
//
//	// 监听配置变化
//	ch, _ := loader.Watch(ctx, "log.level")
//	for event := range ch {
//		fmt.Printf("%s = %v\n", event.Key, event.Value)
//	}
package config

import (
	"context"
	"time"
)

// Loader 配置加载器
type Loader interface {
	// Load 从所有来源加载配置
	Load(ctx context.Context) error

	Get(key string) any

	Unmarshal(v any) error

	UnmarshalKey(key string, v any) error

	// Watch 监听指定 key 的变化，首次调用时启动文件监听，ctx 取消后关闭通道
	Watch(ctx context.Context, key string) (<-chan Event, error)

	// Validate 配置不能为空
	Validate() error
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Source    string // "file"
	Timestamp time.Time
}
