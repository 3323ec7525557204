package redis

import (
	"context"
	"errors"
	"fmt"

	"betting_assistant/pkg/config"
	"betting_assistant/pkg/storage"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Client struct {
	rdb *redis.Client
	ctx context.Context
}

var GlobalRedisClient *Client

// InitRedis 初始化Redis客户端
func InitRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.GlobalConfig.RedisHost, config.GlobalConfig.RedisPort),
		Password: config.GlobalConfig.RedisPassword,
		DB:       config.GlobalConfig.RedisDB,
	})

	ctx := context.Background()

	// 测试连接
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis连接失败: %v", err)
	}

	GlobalRedisClient = &Client{
		rdb: rdb,
		ctx: ctx,
	}

	logrus.Info("Redis连接成功")
	return nil
}

// Get 读取整个槽位，实现 storage.KV
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set 覆盖写入整个槽位，永不过期
func (c *Client) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, key, value, 0).Err()
}

// Delete 删除槽位
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Close 关闭连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// 编译期检查
var _ storage.KV = (*Client)(nil)
