package kvstore

import (
	"context"
	"errors"

	"docchat/internal/pkg/cache"
)

// RedisStore 基于 Redis 的实现，数据不过期
type RedisStore struct {
	cache  *cache.RedisCache
	prefix string
}

// NewRedisStore 创建 Redis 存储，prefix 会加在所有 key 前
func NewRedisStore(c *cache.RedisCache, prefix string) *RedisStore {
	return &RedisStore{cache: c, prefix: prefix}
}

// Load 读取
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.cache.GetBytes(ctx, s.prefix+key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	return data, err
}

// Save 写入
func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	return s.cache.SetBytes(ctx, s.prefix+key, value, 0)
}

// Delete 删除
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, s.prefix+key)
}
