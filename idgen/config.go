package idgen

import (
	"time"

	"github.com/ceyewan/flake/xerrors"
)

// Config 生成器配置
//
//	idgen:
//	  node_id: 7
//	  epoch: "2020-01-01T00:00:00Z"
//	  smoothing: true
type Config struct {
	// NodeID [0, 1023]
	NodeID int64 `yaml:"node_id" json:"node_id" mapstructure:"node_id"`

	// Epoch RFC3339 格式，为空时使用 DefaultEpoch
	Epoch string `yaml:"epoch" json:"epoch" mapstructure:"epoch"`

	// Smoothing 过载平滑，nil 表示默认开启
	Smoothing *bool `yaml:"smoothing" json:"smoothing" mapstructure:"smoothing"`
}

func (c *Config) epoch() (time.Time, error) {
	if c.Epoch == "" {
		return DefaultEpoch, nil
	}
	t, err := time.Parse(time.RFC3339Nano, c.Epoch)
	if err != nil {
		return time.Time{}, xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput, "epoch %q: %v", c.Epoch, err), "epoch_invalid")
	}
	return t, nil
}

// AllocatorConfig 节点 ID 分配器配置
//
//	allocator:
//	  driver: redis
//	  key_prefix: "flake:idgen:worker"
//	  max_id: 1024
//	  ttl: 30
type AllocatorConfig struct {
	// Driver "static" | "ip" | "redis" | "etcd"
	Driver string `yaml:"driver" json:"driver" mapstructure:"driver"`

	// NodeID Driver="static" 时使用
	NodeID int64 `yaml:"node_id" json:"node_id" mapstructure:"node_id"`

	// KeyPrefix 默认 "flake:idgen:worker"
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix" mapstructure:"key_prefix"`

	// MaxID 分配范围 [0, MaxID)，默认 1024
	MaxID int `yaml:"max_id" json:"max_id" mapstructure:"max_id"`

	// TTL 租约秒数，默认 30
	TTL int `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
}

func (c *AllocatorConfig) setDefaults() {
	if c.Driver == "" {
		c.Driver = "static"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "flake:idgen:worker"
	}
	if c.MaxID <= 0 {
		c.MaxID = int(MaxNodeID) + 1
	}
	if c.TTL <= 0 {
		c.TTL = 30
	}
}

func (c *AllocatorConfig) validate() error {
	switch c.Driver {
	case "static":
		if err := checkNodeID(c.NodeID); err != nil {
			return err
		}
	case "ip", "redis", "etcd":
	default:
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput, "driver %q", c.Driver), "unsupported_driver")
	}
	if c.MaxID > int(MaxNodeID)+1 {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput, "max_id %d", c.MaxID), "max_id_out_of_range")
	}
	if c.TTL < 3 {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput, "ttl %d", c.TTL), "ttl_too_short")
	}
	return nil
}
