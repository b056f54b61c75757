package idgen

import (
	"context"
	"strconv"
	"time"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/xerrors"
)

// Snowflake 雪花 ID 生成器，通过 New 或 NewFromConfig 创建
type Snowflake struct {
	nodeID  int64
	epoch   time.Time
	epochMs int64

	coord  *coordinator
	logger clog.Logger
	inst   *instruments
}

// New 校验节点 ID 与纪元后创建生成器
//
// 错误：
//   - ErrNodeIDTooLarge：nodeID 不在 [0, 1023]
//   - ErrEpochInTheFuture：epoch 晚于当前时间
//   - ErrEpochTooFarInThePast：距 epoch 超过 2^41-1 毫秒
func New(nodeID int64, epoch time.Time, opts ...Option) (*Snowflake, error) {
	o := applyOptions(opts)

	if err := checkNodeID(nodeID); err != nil {
		return nil, err
	}
	if err := checkEpoch(epoch, o.clock.Now()); err != nil {
		return nil, err
	}

	nodeLabel := strconv.FormatInt(nodeID, 10)
	inst, err := newInstruments(o.meter, nodeLabel)
	if err != nil {
		return nil, xerrors.Wrap(err, "idgen: create metrics")
	}
	logger := o.logger.With(clog.String("component", "idgen"), clog.Int64("node_id", nodeID))

	s := &Snowflake{
		nodeID:  nodeID,
		epoch:   epoch,
		epochMs: epoch.UnixMilli(),
		logger:  logger,
		inst:    inst,
		coord: &coordinator{
			clock:     o.clock,
			smoothing: o.smoothing,
			logger:    logger,
			inst:      inst,
		},
	}

	inst.nodeID.Set(context.Background(), float64(nodeID))
	logger.Info("snowflake generator created",
		clog.String("epoch", epoch.UTC().Format(time.RFC3339Nano)),
		clog.Bool("smoothing", o.smoothing),
	)
	return s, nil
}

// NewFromConfig 从配置创建生成器，WithSmoothing 选项优先于配置
func NewFromConfig(cfg *Config, opts ...Option) (*Snowflake, error) {
	if cfg == nil {
		return nil, xerrors.WithCode(xerrors.Wrap(ErrInvalidInput, "idgen config is nil"), "config_nil")
	}
	epoch, err := cfg.epoch()
	if err != nil {
		return nil, err
	}
	if cfg.Smoothing != nil {
		opts = append([]Option{WithSmoothing(*cfg.Smoothing)}, opts...)
	}
	return New(cfg.NodeID, epoch, opts...)
}

// Next 生成一个 ID
//
// 已领取的序列号在 ctx 取消后不会归还
func (s *Snowflake) Next(ctx context.Context) (ID, error) {
	t, err := s.coord.acquire(ctx)
	if err != nil {
		s.inst.failed(ctx, codeOf(err))
		return 0, err
	}

	id, err := Pack(t.millis-s.epochMs, s.nodeID, t.seq)
	if err != nil {
		s.inst.failed(ctx, codeOf(err))
		return 0, err
	}
	s.inst.generated.Inc(ctx, s.inst.node)
	return id, nil
}

// NextInt64 以 int64 形式返回 ID
func (s *Snowflake) NextInt64() (int64, error) {
	id, err := s.Next(context.Background())
	return int64(id), err
}

// NextBatch 依次生成 n 个 ID，遇到第一个错误即返回已生成的部分与错误
func (s *Snowflake) NextBatch(ctx context.Context, n int) ([]ID, error) {
	if n < 0 {
		return nil, xerrors.Wrapf(ErrInvalidInput, "batch size %d", n)
	}
	ids := make([]ID, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.Next(ctx)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// NodeID 返回节点 ID
func (s *Snowflake) NodeID() int64 { return s.nodeID }

// Epoch 返回纪元
func (s *Snowflake) Epoch() time.Time { return s.epoch }

// Issued 返回已领取的序列号数量（含失败的请求）
func (s *Snowflake) Issued() int64 {
	n := s.coord.counter.Load()
	if n < 0 {
		return 1<<63 - 1
	}
	return n
}

// Overloaded 当前是否处于过载平滑状态
func (s *Snowflake) Overloaded() bool { return s.coord.overloaded.Load() }

// Parse 以本生成器的纪元解码 ID
func (s *Snowflake) Parse(id ID) Parts {
	return DecodeWithEpoch(id, s.epoch)
}

func codeOf(err error) string {
	if code := xerrors.GetCode(err); code != "" {
		return code
	}
	return "unknown"
}
