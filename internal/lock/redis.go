package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when it still holds our token, so
// a holder whose TTL lapsed can never free somebody else's lock.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// Redis is a distributed keyed lock built on SET NX PX.  Every key
// carries a TTL so a crashed holder cannot wedge a room or trainer
// forever; TTL must comfortably exceed the longest check-then-write.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedis builds a Redis locker.  A zero ttl defaults to 10s.
func NewRedis(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{rdb: rdb, ttl: ttl, retry: 25 * time.Millisecond, prefix: "lock:", logger: logger}
}

type heldKey struct {
	key   string
	token string
}

// Acquire implements Locker.
func (r *Redis) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]heldKey, 0, len(keys))
	for _, k := range keys {
		token := uuid.NewString()
		if err := r.lockOne(ctx, r.prefix+k, token); err != nil {
			r.unlockAll(held)
			return nil, err
		}
		held = append(held, heldKey{key: r.prefix + k, token: token})
	}
	var once sync.Once
	return func() { once.Do(func() { r.unlockAll(held) }) }, nil
}

func (r *Redis) lockOne(ctx context.Context, key, token string) error {
	backoff := r.retry
	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ErrLockTimeout
			}
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ErrLockTimeout
		case <-time.After(backoff):
		}
		if backoff < 400*time.Millisecond {
			backoff *= 2
		}
	}
}

func (r *Redis) unlockAll(held []heldKey) {
	// Release must run even when the request context is already done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, r.rdb, []string{held[i].key}, held[i].token).Err(); err != nil {
			r.logger.Warn("lock release failed", "key", held[i].key, "error", err)
		}
	}
}
