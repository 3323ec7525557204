package redis

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// 缓存键前缀
const (
	CacheKeyMLBSchedule = "cache:mlb:schedule" // MLB赛程
	CacheKeyMLBStats    = "cache:mlb:stats"    // MLB赛季统计
)

// CacheExpirationDefault 默认缓存时间
const CacheExpirationDefault = 5 * time.Minute

// CacheKey 拼接缓存键，如 cache:mlb:stats:team:147:2025:hitting
func CacheKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), ":")
}

// SetCacheWithExpiration 以JSON写入缓存，expiration 为0时使用默认值
func (c *Client) SetCacheWithExpiration(key string, value interface{}, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = CacheExpirationDefault
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(c.ctx, key, data, expiration).Err()
}

// GetCache 读取缓存，未命中返回 false
func (c *Client) GetCache(key string, dest interface{}) (bool, error) {
	data, err := c.rdb.Get(c.ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		// 缓存内容损坏时当作未命中
		logrus.Warnf("缓存解析失败 %s: %v", key, err)
		return false, nil
	}
	return true, nil
}

// DeleteCache 按模式删除缓存
func (c *Client) DeleteCache(pattern string) error {
	keys, err := c.rdb.Keys(c.ctx, pattern).Result()
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		return c.rdb.Del(c.ctx, keys...).Err()
	}
	return nil
}
