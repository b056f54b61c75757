package idgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/connector"
	"github.com/ceyewan/flake/xerrors"
)

type etcdAllocator struct {
	conn   connector.EtcdConnector
	cfg    *AllocatorConfig
	logger clog.Logger
	owner  string

	mu       sync.Mutex
	leaseID  clientv3.LeaseID
	nodeID   int64
	key      string
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newEtcdAllocator(cfg *AllocatorConfig, conn connector.EtcdConnector, logger clog.Logger) *etcdAllocator {
	return &etcdAllocator{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		owner:  uuid.NewString(),
		nodeID: -1,
		stopCh: make(chan struct{}),
	}
}

func (a *etcdAllocator) client() (*clientv3.Client, error) {
	c := a.conn.GetClient()
	if c == nil {
		return nil, xerrors.WithCode(xerrors.Wrap(ErrConnectorNil, "etcd connector not connected"), "etcd_not_connected")
	}
	return c, nil
}

// Allocate 创建租约后从随机起点环形扫描，用 ModRevision==0 的事务抢占空闲 key
func (a *etcdAllocator) Allocate(ctx context.Context) (int64, error) {
	client, err := a.client()
	if err != nil {
		return 0, err
	}

	lease, err := client.Grant(ctx, int64(a.cfg.TTL))
	if err != nil {
		a.logger.Error("etcd grant lease failed", clog.Error(err))
		return 0, xerrors.Wrap(err, "idgen: etcd grant")
	}

	offset := rand.IntN(a.cfg.MaxID)
	for i := 0; i < a.cfg.MaxID; i++ {
		id := (offset + i) % a.cfg.MaxID
		key := fmt.Sprintf("%s:%d", a.cfg.KeyPrefix, id)

		resp, err := client.Txn(ctx).
			If(clientv3.Compare(clientv3.ModRevision(key), "=", 0)).
			Then(clientv3.OpPut(key, a.owner, clientv3.WithLease(lease.ID))).
			Commit()
		if err != nil {
			a.revoke(client, lease.ID)
			a.logger.Error("etcd txn failed", clog.Error(err), clog.String("key", key))
			return 0, xerrors.Wrap(err, "idgen: etcd txn")
		}
		if !resp.Succeeded {
			continue
		}

		a.mu.Lock()
		a.leaseID, a.nodeID, a.key = lease.ID, int64(id), key
		a.mu.Unlock()

		a.logger.Info("node id allocated",
			clog.Int64("node_id", int64(id)),
			clog.String("key", key),
			clog.Int64("lease_id", int64(lease.ID)),
		)
		return int64(id), nil
	}

	a.revoke(client, lease.ID)
	return 0, xerrors.WithCode(ErrWorkerIDExhausted, "no_available_worker_id")
}

func (a *etcdAllocator) revoke(client *clientv3.Client, id clientv3.LeaseID) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := client.Revoke(ctx, id); err != nil {
		a.logger.Warn("etcd revoke lease failed", clog.Error(err), clog.Int64("lease_id", int64(id)))
	}
}

func (a *etcdAllocator) KeepAlive(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	a.mu.Lock()
	leaseID := a.leaseID
	a.mu.Unlock()

	client, err := a.client()
	if err != nil {
		errCh <- err
		return errCh
	}
	if leaseID == 0 {
		errCh <- xerrors.WithCode(xerrors.Wrap(ErrInvalidInput, "keep alive before allocate"), "not_allocated")
		return errCh
	}

	kaCtx, cancel := context.WithCancel(ctx)
	kaCh, err := client.KeepAlive(kaCtx, leaseID)
	if err != nil {
		cancel()
		a.logger.Error("etcd keep alive failed", clog.Error(err), clog.Int64("lease_id", int64(leaseID)))
		errCh <- xerrors.Wrap(err, "idgen: etcd keep alive")
		return errCh
	}

	go func() {
		defer cancel()
		for {
			select {
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			case ka, ok := <-kaCh:
				if ok && ka != nil {
					continue
				}
				// 通道关闭说明租约已失效或 ctx 被取消
				if ctx.Err() != nil {
					return
				}
				a.logger.Error("lease expired", clog.Int64("lease_id", int64(leaseID)))
				errCh <- xerrors.WithCode(ErrLeaseExpired, "lease_expired")
				return
			}
		}
	}()

	return errCh
}

func (a *etcdAllocator) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)

		a.mu.Lock()
		leaseID, nodeID, key := a.leaseID, a.nodeID, a.key
		a.mu.Unlock()
		if leaseID == 0 {
			return
		}

		client, err := a.client()
		if err != nil {
			return
		}
		// 撤销租约，关联的 key 随之删除
		a.revoke(client, leaseID)
		a.logger.Info("node id released",
			clog.Int64("node_id", nodeID),
			clog.String("key", key),
			clog.Int64("lease_id", int64(leaseID)),
		)
	})
}
