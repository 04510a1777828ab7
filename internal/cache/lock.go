// Package cache holds the Redis-backed write locks and the bank holiday
// cache, with in-process fallbacks when Redis isn't configured.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// ErrLocked is returned when a lock is still held after waiting.
var ErrLocked = errors.New("resource is locked")

const (
	lockPrefix    = "opsboard:lock:"
	retryInterval = 50 * time.Millisecond
	maxWait       = 2 * time.Second
)

// Locker serialises check-then-write sequences on a key.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// Connect initializes a Redis client from a URL or host:port and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	var opt *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: addr, Password: password, DB: db}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opt.Addr, err)
	}
	return client, nil
}

// release deletes the lock only if it still holds our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker is a single-instance Redis lock using SET NX PX.
type RedisLocker struct {
	client redis.Cmdable
}

// NewRedisLocker returns a locker backed by client.
func NewRedisLocker(client redis.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	redisKey := lockPrefix + key

	err := retry(ctx, func() (bool, error) {
		return l.client.SetNX(ctx, redisKey, token, ttl).Result()
	})
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := release.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", key).Warn("release lock")
		}
	}, nil
}

// LocalLocker is an in-process Locker for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]localLock
	nowFn func() time.Time
}

type localLock struct {
	token   string
	expires time.Time
}

// NewLocalLocker returns an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]localLock), nowFn: time.Now}
}

func (l *LocalLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	err := retry(ctx, func() (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		now := l.nowFn()
		if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
			return false, nil
		}
		l.held[key] = localLock{token: token, expires: now.Add(ttl)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
	}, nil
}

// retry calls try until it acquires, fails, ctx ends or maxWait passes.
func retry(ctx context.Context, try func() (bool, error)) error {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()
	for {
		ok, err := try()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLocked
		}
		select {
		case <-ctx.Done():
			return ErrLocked
		case <-ticker.C:
		}
	}
}

// ScheduleKey guards booking and maintenance writes.
const ScheduleKey = "schedule"

// RegistrationKey guards self-registration.
const RegistrationKey = "users:register"

// HolidayKey is the lock key for one employee's holiday requests.
func HolidayKey(employeeID string) string { return "holiday:" + employeeID }
