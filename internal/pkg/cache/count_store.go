package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CountStore caches integer aggregates such as per-post comment counts.
type CountStore interface {
	GetCount(ctx context.Context, key string) (int64, bool, error)
	SetCount(ctx context.Context, key string, value int64, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// CommentCountKey is the cache key of a post's comment count.
func CommentCountKey(postID uint) string {
	return fmt.Sprintf("post:%d:comment_count", postID)
}

// NewCountStore uses redis when the cache server is reachable and an
// in-process store otherwise.
func NewCountStore() CountStore {
	if Available() {
		return NewRedisCountStore(GetClient())
	}
	return NewMemoryCountStore(5*time.Minute, 10*time.Minute)
}

type redisCountStore struct {
	rdb redis.Cmdable
}

// NewRedisCountStore wraps a redis client.
func NewRedisCountStore(rdb redis.Cmdable) CountStore {
	return &redisCountStore{rdb: rdb}
}

func (s *redisCountStore) GetCount(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (s *redisCountStore) SetCount(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *redisCountStore) Invalidate(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

type memoryCountStore struct {
	c *gocache.Cache
}

// NewMemoryCountStore keeps counts in process memory.
func NewMemoryCountStore(defaultTTL, cleanupInterval time.Duration) CountStore {
	return &memoryCountStore{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (s *memoryCountStore) GetCount(_ context.Context, key string) (int64, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return 0, false, nil
	}
	n, ok := v.(int64)
	return n, ok, nil
}

func (s *memoryCountStore) SetCount(_ context.Context, key string, value int64, ttl time.Duration) error {
	s.c.Set(key, value, ttl)
	return nil
}

func (s *memoryCountStore) Invalidate(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}
