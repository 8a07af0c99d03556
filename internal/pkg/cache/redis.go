package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"reelforge/internal/config"
)

// RedisCache Redis 缓存封装
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 缓存客户端
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCacheWithClient(client), nil
}

// NewRedisCacheWithClient 使用已有客户端创建缓存
func NewRedisCacheWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Set 设置缓存（JSON 编码）
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存，key 不存在时返回 redis.Nil
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete 删除缓存
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// DefaultPromptCacheTTL 分段改写结果默认缓存时长
const DefaultPromptCacheTTL = 7 * 24 * time.Hour

// PromptCache 分段提示词改写结果缓存，实现 reeltools.PromptCache
type PromptCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewPromptCache 创建改写结果缓存，ttl <= 0 时使用默认值
func NewPromptCache(cache *RedisCache, ttl time.Duration) *PromptCache {
	if ttl <= 0 {
		ttl = DefaultPromptCacheTTL
	}
	return &PromptCache{cache: cache, ttl: ttl}
}

// Get 读取缓存的模型回复，未命中时 ok 为 false
func (c *PromptCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	if err := c.cache.Get(ctx, key, &value); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

// Set 写入模型回复
func (c *PromptCache) Set(ctx context.Context, key string, value string) error {
	return c.cache.Set(ctx, key, value, c.ttl)
}
