// Package redis 提供 Redis 缓存操作的封装
// 本文件仅包含 Redis 连接初始化逻辑
// 使用 github.com/go-redis/redis/v8 作为底层客户端
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"chat_core_server/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Init 按配置连接 Redis 并返回最新消息缓存
// 未启用时返回不做任何事的缓存，调用方无需区分
func Init(ctx context.Context, conf config.RedisConfig) (HistoryCache, func() error, error) {
	if !conf.Enabled {
		return NoopHistoryCache{}, func() error { return nil }, nil
	}

	addr := conf.Host + ":" + strconv.Itoa(conf.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: conf.Password,
		DB:       conf.Db,
		// 连接池配置
		PoolSize:     20,
		MinIdleConns: 4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	zap.L().Info("Redis 连接成功", zap.String("addr", addr))

	cache := NewRedisCache(client, 4, 256)
	return NewHistoryCache(cache), cache.Close, nil
}
