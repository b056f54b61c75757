package idgen

import (
	"time"

	"github.com/ceyewan/flake/xerrors"
)

func checkNodeID(nodeID int64) error {
	if nodeID < 0 {
		return xerrors.WithCode(xerrors.Wrapf(ErrNodeIDTooLarge, "node id %d is negative", nodeID), CodeNodeIDNegative)
	}
	if nodeID > MaxNodeID {
		return xerrors.WithCode(xerrors.Wrapf(ErrNodeIDTooLarge, "node id %d > %d", nodeID, MaxNodeID), CodeNodeIDTooLarge)
	}
	return nil
}

// checkEpoch 要求 0 <= now-epoch <= MaxTimestamp 毫秒，按纳秒精度比较
func checkEpoch(epoch, now time.Time) error {
	if now.Before(epoch) {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrEpochInTheFuture, "epoch %s is after now", epoch.Format(time.RFC3339Nano)),
			CodeEpochInTheFuture)
	}
	if elapsed := now.Sub(epoch); elapsed > time.Duration(MaxTimestamp)*time.Millisecond {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrEpochTooFarInThePast, "epoch %s is %dms ago", epoch.Format(time.RFC3339), elapsed.Milliseconds()),
			CodeEpochTooFarInThePast)
	}
	return nil
}
