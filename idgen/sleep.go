package idgen

import (
	"context"
	"runtime"
	"time"
)

const (
	// DistributedSleep 过载时每次调用前的让步时长：一毫秒均摊到 4096 个序列，约 244ns
	DistributedSleep = time.Millisecond / SequenceSlots

	// spinThreshold 剩余时长低于该值时改为让出调度器自旋
	spinThreshold = 100 * time.Microsecond
)

// hybridSleep 长等待先交给 timer，最后 spinThreshold 以 runtime.Gosched 自旋补齐
func hybridSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	deadline := time.Now().Add(d)

	if d > spinThreshold {
		timer := time.NewTimer(d - spinThreshold)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// smoothingDelay 扣除本次调用已耗时间后的剩余让步时长，不为负
func smoothingDelay(spent time.Duration) time.Duration {
	if spent >= DistributedSleep {
		return 0
	}
	return DistributedSleep - spent
}
