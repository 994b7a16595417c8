package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat_core_server/internal/dto/respond"
	"chat_core_server/pkg/constants"

	"go.uber.org/zap"
)

// recentMessagesKey 最新消息窗口的缓存键
const recentMessagesKey = "chat_recent_messages"

// historyCache 基于 AsyncCacheService 的 HistoryCache 实现
type historyCache struct {
	cache AsyncCacheService
	ttl   time.Duration

	// mu 保证 Invalidate 之后不会有携带旧 gen 的 Refill 写入
	mu  sync.Mutex
	gen uint64
}

// NewHistoryCache 创建最新消息缓存
func NewHistoryCache(cache AsyncCacheService) HistoryCache {
	return &historyCache{
		cache: cache,
		ttl:   time.Minute * constants.REDIS_TIMEOUT,
	}
}

func (h *historyCache) Recent(ctx context.Context) ([]respond.MessageRespond, bool, uint64) {
	h.mu.Lock()
	gen := h.gen
	h.mu.Unlock()

	raw, err := h.cache.Get(ctx, recentMessagesKey)
	if err != nil {
		zap.L().Warn("读取消息缓存失败", zap.Error(err))
		return nil, false, gen
	}
	if raw == "" {
		return nil, false, gen
	}
	var msgs []respond.MessageRespond
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		zap.L().Warn("消息缓存内容无法解析", zap.Error(err))
		return nil, false, gen
	}
	return msgs, true, gen
}

func (h *historyCache) Refill(gen uint64, msgs []respond.MessageRespond) {
	data, err := json.Marshal(msgs)
	if err != nil {
		zap.L().Error("消息缓存序列化失败", zap.Error(err))
		return
	}
	h.cache.SubmitTask(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if gen != h.gen {
			return
		}
		if err := h.cache.Set(context.Background(), recentMessagesKey, string(data), h.ttl); err != nil {
			zap.L().Warn("写回消息缓存失败", zap.Error(err))
		}
	})
}

func (h *historyCache) Invalidate(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gen++
	if err := h.cache.Delete(ctx, recentMessagesKey); err != nil {
		zap.L().Warn("失效消息缓存失败", zap.Error(err))
	}
}

// NoopHistoryCache 未启用 Redis 时使用，永远未命中
type NoopHistoryCache struct{}

func (NoopHistoryCache) Recent(context.Context) ([]respond.MessageRespond, bool, uint64) {
	return nil, false, 0
}

func (NoopHistoryCache) Refill(uint64, []respond.MessageRespond) {}

func (NoopHistoryCache) Invalidate(context.Context) {}
