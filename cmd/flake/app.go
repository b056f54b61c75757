package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/config"
	"github.com/ceyewan/flake/connector"
	"github.com/ceyewan/flake/idgen"
	"github.com/ceyewan/flake/metrics"
	"github.com/ceyewan/flake/xerrors"
)

// AppConfig 配置文件结构
//
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  port: 9090
//	idgen:
//	  node_id: 7
//	  epoch: "2020-01-01T00:00:00Z"
//	allocator:
//	  driver: redis
//	redis:
//	  addr: 127.0.0.1:6379
type AppConfig struct {
	Log       clog.Config           `mapstructure:"log"`
	Metrics   metrics.Config        `mapstructure:"metrics"`
	IDGen     idgen.Config          `mapstructure:"idgen"`
	Allocator idgen.AllocatorConfig `mapstructure:"allocator"`
	Redis     connector.RedisConfig `mapstructure:"redis"`
	Etcd      connector.EtcdConfig  `mapstructure:"etcd"`
}

func defaultAppConfig() AppConfig {
	logCfg := clog.NewProdDefaultConfig()
	logCfg.Level = "warn"
	logCfg.Format = "console"
	logCfg.Output = "stderr"

	return AppConfig{
		Log:     *logCfg,
		Metrics: metrics.Config{ServiceName: "flake"},
	}
}

// app 命令运行期依赖，close 按注册的逆序释放
type app struct {
	cfg    AppConfig
	logger clog.Logger
	meter  metrics.Meter

	closers []func()
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg := defaultAppConfig()
	loaded, err := loadConfig(ctx, opts.configFile, &cfg)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, err := clog.New(&cfg.Log)
	if err != nil {
		return nil, xerrors.Wrap(err, "create logger")
	}
	if !loaded {
		logger.Debug("no config file found, using defaults")
	}

	a := &app{cfg: cfg, logger: logger, meter: metrics.Discard()}
	if cfg.Metrics.Enabled {
		meter, err := metrics.New(&cfg.Metrics, metrics.WithLogger(logger))
		if err != nil {
			return nil, xerrors.Wrap(err, "create meter")
		}
		a.meter = meter
		a.onClose(func() {
			if err := meter.Shutdown(context.Background()); err != nil {
				logger.Warn("metrics shutdown failed", clog.Error(err))
			}
		})
	}
	return a, nil
}

// loadConfig 读取配置文件；没有找到任何配置时保留默认值
func loadConfig(ctx context.Context, file string, out *AppConfig) (bool, error) {
	cfg := &config.Config{Name: "flake"}
	if file != "" {
		ext := filepath.Ext(file)
		cfg.Name = strings.TrimSuffix(filepath.Base(file), ext)
		cfg.Paths = []string{filepath.Dir(file)}
		cfg.FileType = strings.TrimPrefix(ext, ".")
	}

	loader, err := config.New(cfg)
	if err != nil {
		return false, err
	}
	if err := loader.Load(ctx); err != nil {
		if xerrors.Is(err, config.ErrValidationFailed) && file == "" {
			return false, nil
		}
		return false, xerrors.Wrap(err, "load config")
	}
	if err := loader.Unmarshal(out); err != nil {
		return false, xerrors.Wrap(err, "unmarshal config")
	}
	return true, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.logger.Flush()
}

// generatorFlags 命令行覆盖项
type generatorFlags struct {
	nodeID      int64
	nodeIDSet   bool
	epoch       string
	noSmoothing bool
}

// newGenerator 依次使用 --node、分配器、配置文件中的节点 ID
func (a *app) newGenerator(ctx context.Context, flags generatorFlags) (*idgen.Snowflake, error) {
	cfg := a.cfg.IDGen
	if flags.epoch != "" {
		cfg.Epoch = flags.epoch
	}
	if flags.noSmoothing {
		off := false
		cfg.Smoothing = &off
	}

	switch {
	case flags.nodeIDSet:
		cfg.NodeID = flags.nodeID
	case a.cfg.Allocator.Driver != "":
		nodeID, err := a.allocateNodeID(ctx)
		if err != nil {
			return nil, err
		}
		cfg.NodeID = nodeID
	}

	return idgen.NewFromConfig(&cfg, idgen.WithLogger(a.logger), idgen.WithMeter(a.meter))
}

func (a *app) allocateNodeID(ctx context.Context) (int64, error) {
	allocCfg := a.cfg.Allocator
	opts := []idgen.Option{idgen.WithLogger(a.logger), idgen.WithMeter(a.meter)}

	switch allocCfg.Driver {
	case "redis":
		conn, err := connector.NewRedis(&a.cfg.Redis, connector.WithLogger(a.logger), connector.WithMeter(a.meter))
		if err != nil {
			return 0, err
		}
		a.onClose(func() { _ = conn.Close() })
		if err := conn.Connect(ctx); err != nil {
			return 0, err
		}
		opts = append(opts, idgen.WithRedisConnector(conn))
	case "etcd":
		conn, err := connector.NewEtcd(&a.cfg.Etcd, connector.WithLogger(a.logger), connector.WithMeter(a.meter))
		if err != nil {
			return 0, err
		}
		a.onClose(func() { _ = conn.Close() })
		if err := conn.Connect(ctx); err != nil {
			return 0, err
		}
		opts = append(opts, idgen.WithEtcdConnector(conn))
	}

	alloc, err := idgen.NewAllocator(&allocCfg, opts...)
	if err != nil {
		return 0, err
	}
	nodeID, err := alloc.Allocate(ctx)
	if err != nil {
		return 0, err
	}
	a.onClose(alloc.Stop)

	errCh := alloc.KeepAlive(ctx)
	go func() {
		select {
		case err := <-errCh:
			if err != nil {
				a.logger.Error("node id lease lost, ids may collide with another instance",
					clog.Error(err), clog.Int64("node_id", nodeID))
			}
		case <-ctx.Done():
		}
	}()
	return nodeID, nil
}
