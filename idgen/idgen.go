// Package idgen 生成 64 位、按时间有序的雪花 ID。
//
// 位布局（高位到低位）：1 位符号恒为 0 | 41 位距纪元毫秒 | 10 位节点 ID | 12 位序列。
// 同一个 *Snowflake 可被任意多个 goroutine 并发使用，热路径无锁：
// 每次请求原子地领取一个序列号，再在对应槽位上用 CAS 领取一个毫秒。
//
// 基本使用：
//
//	gen, err := idgen.New(7, idgen.DefaultEpoch, idgen.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	id, err := gen.Next(ctx)
//	fmt.Println(id, id.Base58())
//
// 多实例部署时每个实例必须使用不同的节点 ID，可通过 NewAllocator 从 Redis/Etcd 抢占。
package idgen

import "context"

// Int64Generator 数字 ID 生成器
type Int64Generator interface {
	// Next 生成一个 ID，只在等待下一毫秒或过载平滑时挂起
	Next(ctx context.Context) (ID, error)

	// NextInt64 等价于 Next(context.Background())
	NextInt64() (int64, error)
}

var _ Int64Generator = (*Snowflake)(nil)
