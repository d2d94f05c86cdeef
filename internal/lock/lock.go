// Package lock provides the single-flight guard around dataset refreshes.
//
// A Locker never waits: TryAcquire either grants the lock immediately or
// reports that another holder is active. Two backends exist: Local for a
// single process and Redis for several replicas sharing one store.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned by TryAcquire when the lock is already taken.
var ErrHeld = errors.New("lock is held")

// Release frees an acquired lock. It is safe to call more than once.
type Release func(ctx context.Context) error

// Locker grants exclusive, non-blocking ownership.
type Locker interface {
	TryAcquire(ctx context.Context) (Release, error)
}

// Local is an in-process Locker backed by sync.Mutex.TryLock.
type Local struct {
	mu sync.Mutex
}

// NewLocal returns an unlocked Local.
func NewLocal() *Local { return &Local{} }

// TryAcquire implements Locker.
func (l *Local) TryAcquire(context.Context) (Release, error) {
	if !l.mu.TryLock() {
		return nil, ErrHeld
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker shared between processes through SET NX PX. The TTL
// bounds how long a crashed holder can block others.
type Redis struct {
	Client redis.UniversalClient
	Key    string
	TTL    time.Duration
}

// DefaultRedisKey is the key used when Redis.Key is empty.
const DefaultRedisKey = "countrycache:refresh-lock"

// NewRedis builds a Redis locker for a single node at addr.
func NewRedis(addr, password string, ttl time.Duration) *Redis {
	return &Redis{
		Client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0,
		}),
		Key: DefaultRedisKey,
		TTL: ttl,
	}
}

// TryAcquire implements Locker.
func (r *Redis) TryAcquire(ctx context.Context) (Release, error) {
	key := r.Key
	if key == "" {
		key = DefaultRedisKey
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHeld
	}

	var (
		once sync.Once
		rerr error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			rerr = releaseScript.Run(ctx, r.Client, []string{key}, token).Err()
		})
		return rerr
	}, nil
}
