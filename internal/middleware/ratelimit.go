package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateStore tracks request timestamps per identity inside a sliding
// window. Take evicts entries older than now-window, then either records
// the request or reports that the identity is over its limit.
type RateStore interface {
	Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, error)
}

// MemoryStore is a process-local RateStore. Suitable for single-instance
// deployments; a shared store is needed once the service scales out.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryStore constructs an empty in-memory rate store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[string][]time.Time)}
}

// Take implements RateStore.
func (s *MemoryStore) Take(_ context.Context, key string, now time.Time, window time.Duration, max int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	windowStart := now.Add(-window)
	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= max {
		s.hits[key] = kept
		return false, nil
	}

	s.hits[key] = append(kept, now)
	return true, nil
}

// RedisStore is a RateStore backed by a redis sorted set per identity,
// letting multiple instances share one counter.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a redis-backed rate store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:"}
}

// Take implements RateStore.
func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, error) {
	redisKey := s.prefix + key
	windowStart := now.Add(-window).UnixNano()

	if err := s.client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart)).Err(); err != nil {
		return false, err
	}

	count, err := s.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}

	if count >= int64(max) {
		return false, nil
	}

	member := fmt.Sprintf("%d", now.UnixNano())
	if err := s.client.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member}).Err(); err != nil {
		return false, err
	}

	return true, s.client.Expire(ctx, redisKey, window).Err()
}

// RateLimit rejects identities that exceed max requests per window. The
// identity is the authenticated user id, or the client address for
// anonymous callers.
func RateLimit(store RateStore, max int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if userID, ok := CurrentUserID(c); ok {
			key = userID.String()
		}

		allowed, err := store.Take(c.Context(), key, time.Now(), window, max)
		if err != nil {
			return err
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success":    false,
				"message":    "too many requests, please try again later",
				"retryAfter": int(window.Seconds()),
			})
		}

		return c.Next()
	}
}
