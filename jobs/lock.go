// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/brikick/auth"
)

const lockPrefix = "brikick:job:"

// Locker grants one runner at a time the right to run a job. Acquire
// returns ok=false without error when another runner holds the lock.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// LocalLocker serializes runs inside a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) Acquire(_ context.Context, name string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, false, nil
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, true, nil
}

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares job locks between replicas with SET NX PX.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker connects to the Redis server at url
// (redis://[:password@]host:port/db).
func NewRedisLocker(url string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &RedisLocker{client: redis.NewClient(opts)}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	key := lockPrefix + name
	token := auth.NewID()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to take lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return l.unlocker(key, token), true, nil
}

// unlocker returns the release func handed to the runner. A failed release
// leaves the lock in place until its TTL runs out.
func (l *RedisLocker) unlocker(key, token string) func() {
	return func() {
		if err := l.release(key, token); err != nil {
			slog.Warn("failed to release job lock", "key", key, "error", err)
		}
	}
}

// release drops the lock if it still carries token. The run's context may
// be gone by now, so it uses its own.
func (l *RedisLocker) release(key, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
