package idgen

import (
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/ceyewan/flake/xerrors"
)

// 位布局：1 位符号（恒为 0）| 41 位毫秒 | 10 位节点 | 12 位序列
const (
	TimestampBits = 41
	NodeBits      = 10
	SequenceBits  = 12

	TimestampShift = NodeBits + SequenceBits
	NodeShift      = SequenceBits
	SequenceShift  = 0

	// MaxTimestamp 距纪元的最大毫秒数，约 69.7 年
	MaxTimestamp int64 = 1<<TimestampBits - 1
	MaxNodeID    int64 = 1<<NodeBits - 1
	MaxSequence  int64 = 1<<SequenceBits - 1

	// SequenceSlots 每毫秒每节点可分配的序列数
	SequenceSlots = 1 << SequenceBits
)

// DefaultEpoch 2020-01-01T00:00:00Z
var DefaultEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// ID 64 位雪花 ID，非负
type ID int64

// Pack 拼装 ID，elapsedMillis 超出 41 位时返回 ErrEpochTooFarInThePast。
// nodeID 与 seq 按位宽截断，调用方负责保证范围。
func Pack(elapsedMillis, nodeID, seq int64) (ID, error) {
	if elapsedMillis > MaxTimestamp {
		return 0, xerrors.WithCode(
			xerrors.Wrapf(ErrEpochTooFarInThePast, "elapsed %dms exceeds %dms", elapsedMillis, MaxTimestamp),
			CodeEpochTooFarInThePast)
	}
	if elapsedMillis < 0 {
		return 0, xerrors.WithCode(
			xerrors.Wrapf(ErrClockWentBackInTime, "clock is %dms before epoch", -elapsedMillis),
			CodeClockWentBackInTime)
	}
	return ID(elapsedMillis<<TimestampShift | (nodeID&MaxNodeID)<<NodeShift | (seq&MaxSequence)<<SequenceShift), nil
}

// Decompose 拆出毫秒、节点、序列三段
func Decompose(id ID) (elapsedMillis, nodeID, seq int64) {
	v := int64(id)
	return v >> TimestampShift, (v >> NodeShift) & MaxNodeID, (v >> SequenceShift) & MaxSequence
}

// Parts 解码后的 ID
type Parts struct {
	Timestamp time.Time
	Elapsed   int64
	NodeID    int64
	Sequence  int64
}

// DecodeWithEpoch 以给定纪元解码
func DecodeWithEpoch(id ID, epoch time.Time) Parts {
	elapsed, node, seq := Decompose(id)
	return Parts{
		Timestamp: epoch.Add(time.Duration(elapsed) * time.Millisecond).UTC(),
		Elapsed:   elapsed,
		NodeID:    node,
		Sequence:  seq,
	}
}

// 字符串编码委托给 bwmarrin/snowflake，其字母表与社区实现一致

func (id ID) Int64() int64 { return int64(id) }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id ID) Base2() string { return snowflake.ID(id).Base2() }

func (id ID) Base32() string { return snowflake.ID(id).Base32() }

func (id ID) Base36() string { return snowflake.ID(id).Base36() }

func (id ID) Base58() string { return snowflake.ID(id).Base58() }

func (id ID) Base64() string { return snowflake.ID(id).Base64() }

// MarshalJSON 编码为带引号的十进制字符串，避免 JavaScript 精度丢失
func (id ID) MarshalJSON() ([]byte, error) {
	return snowflake.ID(id).MarshalJSON()
}

// UnmarshalJSON 接受带引号的十进制字符串
func (id *ID) UnmarshalJSON(b []byte) error {
	var sf snowflake.ID
	if err := sf.UnmarshalJSON(b); err != nil {
		return xerrors.Wrap(xerrors.ErrInvalidInput, err.Error())
	}
	*id = ID(sf)
	return nil
}

// Format 字符串编码格式
type Format string

const (
	FormatInt    Format = "int"
	FormatBase2  Format = "base2"
	FormatBase32 Format = "base32"
	FormatBase36 Format = "base36"
	FormatBase58 Format = "base58"
	FormatBase64 Format = "base64"
)

// Encode 按格式编码，未知格式返回 ErrInvalidInput
func (id ID) Encode(f Format) (string, error) {
	switch f {
	case FormatInt, "":
		return id.String(), nil
	case FormatBase2:
		return id.Base2(), nil
	case FormatBase32:
		return id.Base32(), nil
	case FormatBase36:
		return id.Base36(), nil
	case FormatBase58:
		return id.Base58(), nil
	case FormatBase64:
		return id.Base64(), nil
	default:
		return "", xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown format %q", f)
	}
}

// ParseID 按格式解析字符串
func ParseID(s string, f Format) (ID, error) {
	var (
		sf  snowflake.ID
		err error
	)
	switch f {
	case FormatInt, "":
		sf, err = snowflake.ParseString(s)
	case FormatBase2:
		sf, err = snowflake.ParseBase2(s)
	case FormatBase32:
		sf, err = snowflake.ParseBase32([]byte(s))
	case FormatBase36:
		sf, err = snowflake.ParseBase36(s)
	case FormatBase58:
		sf, err = snowflake.ParseBase58([]byte(s))
	case FormatBase64:
		sf, err = snowflake.ParseBase64(s)
	default:
		return 0, xerrors.Wrapf(xerrors.ErrInvalidInput, "unknown format %q", f)
	}
	if err != nil {
		return 0, xerrors.Wrapf(xerrors.ErrInvalidInput, "parse %s id %q: %v", f, s, err)
	}
	if sf < 0 {
		return 0, xerrors.Wrapf(xerrors.ErrInvalidInput, "negative id %d", int64(sf))
	}
	return ID(sf), nil
}
