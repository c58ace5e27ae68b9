package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache Redis缓存实现
type RedisCache struct {
	client *redis.Client
	prefix string
}

// Config Redis配置
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	Prefix   string
}

// NewRedisCache 创建Redis缓存实例
func NewRedisCache(config *Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.Prefix
	if prefix == "" {
		prefix = "rbadmin:cache"
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
	}
}

// Close 关闭Redis连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping 测试Redis连接
func (c *RedisCache) Ping() error {
	ctx := context.Background()
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) key(key string) string {
	return c.prefix + ":" + key
}

// Set 写入缓存
func (c *RedisCache) Set(key string, value string, ttl time.Duration) error {
	ctx := context.Background()
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Get 读取缓存，未命中返回空字符串
func (c *RedisCache) Get(key string) (string, error) {
	ctx := context.Background()
	value, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

// Delete 删除缓存
func (c *RedisCache) Delete(keys ...string) error {
	ctx := context.Background()
	fullKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		fullKeys = append(fullKeys, c.key(k))
	}
	return c.client.Del(ctx, fullKeys...).Err()
}

// DeleteByPattern 按模式删除缓存（用于批量失效）
func (c *RedisCache) DeleteByPattern(pattern string) error {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, c.key(pattern), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Exists 判断键是否存在
func (c *RedisCache) Exists(key string) (bool, error) {
	ctx := context.Background()
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	return n > 0, err
}

// ========== 令牌黑名单 ==========

// BlacklistToken 将令牌加入黑名单（登出后剩余有效期内拒绝）
func (c *RedisCache) BlacklistToken(token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.Set("token:blacklist:"+token, "1", ttl)
}

// IsTokenBlacklisted 检查令牌是否在黑名单中
func (c *RedisCache) IsTokenBlacklisted(token string) (bool, error) {
	return c.Exists("token:blacklist:" + token)
}
