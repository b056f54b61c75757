package idgen

import (
	"context"
	"time"
)

// Clock 时间源与等待原语，测试时可替换
type Clock interface {
	Now() time.Time

	// Sleep 挂起 d，ctx 取消时提前返回 ctx.Err()
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock 本地墙上时钟，Sleep 使用混合睡眠以获得亚毫秒精度
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	return hybridSleep(ctx, d)
}

// unixMilli 墙上时钟毫秒
func unixMilli(c Clock) int64 {
	return c.Now().UnixMilli()
}
