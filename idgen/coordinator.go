package idgen

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/xerrors"
)

// coordinator 无锁分配 (毫秒, 序列)：
//   - counter 每次请求自增一次，序列号为 n mod 4096
//   - marks[seq] 记录该槽位最近一次发放的毫秒，CAS 保证同一槽位的毫秒严格递增
//   - 槽位在当前毫秒已被占用时等待下一毫秒，并打开过载标记
type coordinator struct {
	counter    atomic.Int64
	marks      [SequenceSlots]atomic.Int64
	overloaded atomic.Bool
	exhausted  atomic.Bool

	clock     Clock
	smoothing bool
	logger    clog.Logger
	inst      *instruments
}

// ticket 一次成功的分配
type ticket struct {
	millis int64 // Unix 毫秒
	seq    int64
	waited time.Duration
}

func (c *coordinator) acquire(ctx context.Context) (ticket, error) {
	start := c.clock.Now()

	if c.smoothing && c.overloaded.Load() {
		if d := smoothingDelay(c.clock.Now().Sub(start)); d > 0 {
			if err := c.clock.Sleep(ctx, d); err != nil {
				return ticket{}, canceled(err, "distributed sleep")
			}
		}
	}

	if c.exhausted.Load() {
		return ticket{}, errExhausted()
	}
	n := c.counter.Add(1) - 1
	if n == math.MaxInt64 || n < 0 {
		if c.exhausted.CompareAndSwap(false, true) {
			c.logger.Error("request counter exhausted, generator is permanently unusable",
				clog.Int64("limit", math.MaxInt64))
		}
		return ticket{}, errExhausted()
	}
	seq := n & MaxSequence

	waitedFrom := time.Time{}
	for {
		last := c.marks[seq].Load()
		now := unixMilli(c.clock)

		if now < last {
			c.logger.Warn("clock went back in time",
				clog.Int64("sequence", seq),
				clog.Int64("last_ms", last),
				clog.Int64("now_ms", now),
			)
			return ticket{}, xerrors.WithCode(
				xerrors.Wrapf(ErrClockWentBackInTime, "slot %d last issued at %dms, clock reads %dms", seq, last, now),
				CodeClockWentBackInTime)
		}

		if now == last {
			if waitedFrom.IsZero() {
				waitedFrom = c.clock.Now()
			}
			if !c.overloaded.Swap(true) {
				c.inst.overload.Inc(ctx, c.inst.node)
				c.logger.Debug("sequence slot reused within one millisecond, entering overload",
					clog.Int64("sequence", seq), clog.Int64("ms", now))
			}
			if err := c.waitNextMilli(ctx, last); err != nil {
				return ticket{}, err
			}
			continue
		}

		if !c.marks[seq].CompareAndSwap(last, now) {
			continue
		}

		t := ticket{millis: now, seq: seq}
		if waitedFrom.IsZero() {
			c.overloaded.Store(false)
		} else {
			t.waited = c.clock.Now().Sub(waitedFrom)
			c.inst.wait.Record(ctx, t.waited.Seconds(), c.inst.node)
		}
		return t, nil
	}
}

// waitNextMilli 挂起到 last+1 毫秒边界
func (c *coordinator) waitNextMilli(ctx context.Context, last int64) error {
	d := time.UnixMilli(last + 1).Sub(c.clock.Now())
	if d <= 0 {
		return nil
	}
	if err := c.clock.Sleep(ctx, d); err != nil {
		return canceled(err, "wait for next millisecond")
	}
	return nil
}

func errExhausted() error {
	return xerrors.WithCode(ErrSurpassed64BitLimit, CodeSurpassed64BitLimit)
}

func canceled(err error, during string) error {
	return xerrors.WithCode(xerrors.Wrap(err, "idgen: canceled during "+during), CodeCanceled)
}
