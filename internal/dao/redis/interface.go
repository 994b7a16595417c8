// Package redis 定义缓存服务接口
// 遵循依赖倒置原则，Service 层依赖此接口而非具体 Redis 实现
package redis

import (
	"context"
	"time"

	"chat_core_server/internal/dto/respond"
)

// CacheService 缓存服务接口
type CacheService interface {
	// Set 设置键值对并指定过期时间
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get 获取键对应的值（键不存在返回空字符串和 nil）
	Get(ctx context.Context, key string) (string, error)
	// Delete 删除键（如果存在）
	Delete(ctx context.Context, key string) error
}

// AsyncCacheService 异步缓存服务接口
// 提供异步任务提交能力，用于非阻塞缓存更新
type AsyncCacheService interface {
	CacheService
	// SubmitTask 提交异步缓存任务
	SubmitTask(action func())
}

// HistoryCache 最新消息窗口的缓存
// 存储始终是权威数据：缓存未命中或出错时调用方直接查库
type HistoryCache interface {
	// Recent 返回缓存的最新窗口（按 id 升序）；gen 用于之后的 Refill
	Recent(ctx context.Context) (msgs []respond.MessageRespond, hit bool, gen uint64)
	// Refill 异步写回窗口；gen 已过期（期间有新消息写入）时放弃写回
	Refill(gen uint64, msgs []respond.MessageRespond)
	// Invalidate 新消息写入后同步失效
	Invalidate(ctx context.Context)
}
