package idgen

import "github.com/ceyewan/flake/xerrors"

// 生成相关错误。均不会在内部重试，调用方用 errors.Is 判断
var (
	// ErrNodeIDTooLarge 节点 ID 超出 [0, 1023]，负数同样返回此错误（错误码 node_id_negative）
	ErrNodeIDTooLarge = xerrors.New("idgen: node id too large")

	// ErrEpochInTheFuture 纪元晚于当前时间
	ErrEpochInTheFuture = xerrors.New("idgen: epoch is in the future")

	// ErrEpochTooFarInThePast 距纪元的毫秒数超出 41 位
	ErrEpochTooFarInThePast = xerrors.New("idgen: epoch too far in the past")

	// ErrClockWentBackInTime 同一序列槽位观察到时钟回拨
	ErrClockWentBackInTime = xerrors.New("idgen: clock went back in time")

	// ErrSurpassed64BitLimit 实例累计请求数达到 math.MaxInt64，之后永久失败
	ErrSurpassed64BitLimit = xerrors.New("idgen: surpassed 64-bit request limit")
)

// 节点 ID 分配相关错误
var (
	// ErrConnectorNil 连接器为空
	ErrConnectorNil = xerrors.New("idgen: connector is nil")

	// ErrWorkerIDExhausted 没有可用的节点 ID
	ErrWorkerIDExhausted = xerrors.New("idgen: no available worker id")

	// ErrInvalidInput 无效的输入
	ErrInvalidInput = xerrors.New("idgen: invalid input")

	// ErrLeaseExpired 租约已失效
	ErrLeaseExpired = xerrors.New("idgen: lease expired")
)

// 错误码
const (
	CodeNodeIDTooLarge       = "node_id_too_large"
	CodeNodeIDNegative       = "node_id_negative"
	CodeEpochInTheFuture     = "epoch_in_the_future"
	CodeEpochTooFarInThePast = "epoch_too_far_in_the_past"
	CodeClockWentBackInTime  = "clock_went_back_in_time"
	CodeSurpassed64BitLimit  = "surpassed_64bit_limit"
	CodeCanceled             = "canceled"
)
