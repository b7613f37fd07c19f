package service

import (
	"context"
	"go-medstore-api/logger"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	// Allow counts one request for key and reports whether it is within the
	// limit. When it is not, retryAfter is the time left in the window.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration)
}

type rateBucket struct {
	count     int
	windowEnd time.Time
}

// MemoryRateLimiter keeps counters in process memory. A janitor goroutine
// drops buckets whose window has ended.
type MemoryRateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*rateBucket

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	l := &MemoryRateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]*rateBucket),
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	bucket, ok := l.buckets[key]
	if !ok || !now.Before(bucket.windowEnd) {
		l.buckets[key] = &rateBucket{count: 1, windowEnd: now.Add(l.window)}
		return true, 0
	}
	if bucket.count >= l.limit {
		return false, bucket.windowEnd.Sub(now)
	}
	bucket.count++
	return true, 0
}

// Stop ends the janitor goroutine.
func (l *MemoryRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *MemoryRateLimiter) janitor() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *MemoryRateLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, bucket := range l.buckets {
		if !now.Before(bucket.windowEnd) {
			delete(l.buckets, key)
		}
	}
}

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return {0, redis.call("PTTL", KEYS[1])}
end
return {1, 0}
`

// RedisRateLimiter shares counters between instances through redis. Redis
// failures let the request through.
type RedisRateLimiter struct {
	client redis.Scripter
	script *redis.Script
	prefix string
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(client redis.Scripter, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		script: redis.NewScript(rateLimitScript),
		prefix: "ratelimit:",
		limit:  limit,
		window: window,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if key == "" || l.limit <= 0 || l.window <= 0 {
		return true, 0
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, l.limit).Int64Slice()
	if err != nil || len(res) != 2 {
		logger.Log.WithError(err).WithField("key", key).Warn("Rate limiter unavailable, allowing request")
		return true, 0
	}
	if res[0] == 1 {
		return true, 0
	}
	retry := time.Duration(res[1]) * time.Millisecond
	if retry < 0 {
		retry = l.window
	}
	return false, retry
}
