package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
	"github.com/reliant/configurator/pkg/domain"
	"github.com/reliant/configurator/pkg/ports"
)

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = backend.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Locker implements ports.DistributedLocker using Redis.
type Locker struct {
	client *backend.Client
	prefix string
	wait   time.Duration
	poll   time.Duration
}

// LockerOption configures a Locker.
type LockerOption func(*Locker)

// WithWait makes Lock poll for up to d before giving up.
// By default a held lock is reported immediately.
func WithWait(d time.Duration) LockerOption {
	return func(l *Locker) { l.wait = d }
}

// WithPollInterval sets the interval between acquire attempts while waiting.
func WithPollInterval(d time.Duration) LockerOption {
	return func(l *Locker) { l.poll = d }
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string, opts ...LockerOption) *Locker {
	l := &Locker{
		client: client,
		prefix: prefix,
		poll:   100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Locker) key(key string) string {
	return l.prefix + "lock:" + key
}

// Lock acquires the lock for key with SET NX PX. When the lock is held
// elsewhere it returns domain.ErrTransitionInFlight once the wait budget is spent.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.key(key)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis error acquiring lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err()
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("lock %s: %w", key, domain.ErrTransitionInFlight)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
