package clog

import (
	"fmt"
	"strings"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config 日志配置
//
//	Level:     debug|info|warn|error|fatal
//	Format:    json|console
//	Output:    stdout|stderr|<文件路径>
//	AddSource: 是否输出调用位置
//
// 示例：
//
//	config := &clog.Config{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "/var/log/flake.log",
//	}
type Config struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	Output      string `json:"output" yaml:"output" mapstructure:"output"`
	EnableColor bool   `json:"enable_color" yaml:"enable_color" mapstructure:"enable_color"` // 仅 console 格式有效
	AddSource   bool   `json:"add_source" yaml:"add_source" mapstructure:"add_source"`
	SourceRoot  string `json:"source_root" yaml:"source_root" mapstructure:"source_root"` // 用于裁剪 caller 路径
}

// NewDevDefaultConfig 开发环境默认配置：debug 级别、彩色 console 输出到 stderr
func NewDevDefaultConfig(sourceRoot string) *Config {
	return &Config{
		Level:       "debug",
		Format:      "console",
		Output:      "stderr",
		EnableColor: true,
		AddSource:   true,
		SourceRoot:  sourceRoot,
	}
}

// NewProdDefaultConfig 生产环境默认配置：info 级别、JSON 输出到 stdout
func NewProdDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
}

// validate 设置默认值并校验配置
func (c *Config) validate() error {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}

	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}
	format := strings.ToLower(c.Format)
	if format != "json" && format != "console" {
		return fmt.Errorf("invalid format: %s, must be json or console", c.Format)
	}
	return nil
}
