package idgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/flake/clog"
	"github.com/ceyewan/flake/connector"
	"github.com/ceyewan/flake/xerrors"
)

// allocateScript 从 offset 开始环形扫描 [0, max_id)，SET NX EX 抢占第一个空闲 ID
var allocateScript = redis.NewScript(`
local prefix = KEYS[1]
local value = ARGV[1]
local ttl = tonumber(ARGV[2])
local max_id = tonumber(ARGV[3])
local offset = tonumber(ARGV[4])

for i = 0, max_id - 1 do
	local id = (offset + i) % max_id
	if redis.call("SET", prefix .. ":" .. id, value, "NX", "EX", ttl) then
		return id
	end
end
return -1
`)

// renewScript 仅当 key 仍归属本实例时续期
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript 仅删除本实例持有的 key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisAllocator struct {
	conn   connector.RedisConnector
	cfg    *AllocatorConfig
	logger clog.Logger
	owner  string

	mu       sync.Mutex
	nodeID   int64
	key      string
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newRedisAllocator(cfg *AllocatorConfig, conn connector.RedisConnector, logger clog.Logger) *redisAllocator {
	return &redisAllocator{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		owner:  uuid.NewString(),
		nodeID: -1,
		stopCh: make(chan struct{}),
	}
}

func (a *redisAllocator) Allocate(ctx context.Context) (int64, error) {
	client := a.conn.GetClient()
	offset := rand.IntN(a.cfg.MaxID)

	res, err := allocateScript.Run(ctx, client, []string{a.cfg.KeyPrefix},
		a.owner, a.cfg.TTL, a.cfg.MaxID, offset).Int64()
	if err != nil {
		a.logger.Error("redis allocate script failed", clog.Error(err), clog.String("key_prefix", a.cfg.KeyPrefix))
		return 0, xerrors.Wrap(err, "idgen: redis allocate")
	}
	if res < 0 {
		return 0, xerrors.WithCode(ErrWorkerIDExhausted, "no_available_worker_id")
	}

	a.mu.Lock()
	a.nodeID = res
	a.key = fmt.Sprintf("%s:%d", a.cfg.KeyPrefix, res)
	a.mu.Unlock()

	a.logger.Info("node id allocated", clog.Int64("node_id", res), clog.String("key", a.key))
	return res, nil
}

func (a *redisAllocator) KeepAlive(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)

	a.mu.Lock()
	key := a.key
	a.mu.Unlock()
	if key == "" {
		errCh <- xerrors.WithCode(xerrors.Wrap(ErrInvalidInput, "keep alive before allocate"), "not_allocated")
		return errCh
	}

	interval := time.Duration(a.cfg.TTL) * time.Second / 3
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		client := a.conn.GetClient()

		for {
			select {
			case <-a.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := renewScript.Run(ctx, client, []string{key}, a.owner, a.cfg.TTL).Int64()
				if err != nil {
					a.logger.Error("keep alive failed", clog.Error(err), clog.String("key", key))
					errCh <- xerrors.Wrap(err, "idgen: redis keep alive")
					return
				}
				if ok == 0 {
					a.logger.Error("node id lease lost", clog.String("key", key))
					errCh <- xerrors.WithCode(ErrLeaseExpired, "lease_expired")
					return
				}
			}
		}
	}()

	return errCh
}

func (a *redisAllocator) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)

		a.mu.Lock()
		key, nodeID := a.key, a.nodeID
		a.mu.Unlock()
		if key == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, a.conn.GetClient(), []string{key}, a.owner).Err(); err != nil {
			a.logger.Warn("release node id failed", clog.Error(err), clog.String("key", key))
			return
		}
		a.logger.Info("node id released", clog.Int64("node_id", nodeID), clog.String("key", key))
	})
}
