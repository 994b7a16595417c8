package chatroom

import (
	"context"

	"chat_core_server/internal/dao/gormdb"
	myredis "chat_core_server/internal/dao/redis"
	"chat_core_server/internal/dto/respond"
	"chat_core_server/internal/model"

	"github.com/samber/lo"
)

// HistoryReader 读取最新消息，优先命中 Redis 中缓存的窗口
// 同时服务于 GetHistory（无游标）和推送会话的欢迎帧
type HistoryReader struct {
	repo   gormdb.MessageRepository
	cache  myredis.HistoryCache
	window int
}

// NewHistoryReader window 为缓存窗口大小
func NewHistoryReader(repo gormdb.MessageRepository, cache myredis.HistoryCache, window int) *HistoryReader {
	if cache == nil {
		cache = myredis.NoopHistoryCache{}
	}
	return &HistoryReader{repo: repo, cache: cache, window: window}
}

// Recent 最新 limit 条消息，按 id 升序
func (h *HistoryReader) Recent(ctx context.Context, limit int) ([]respond.MessageRespond, error) {
	if limit <= 0 {
		return []respond.MessageRespond{}, nil
	}

	cached, hit, gen := h.cache.Recent(ctx)
	if hit {
		// 缓存不足一个窗口说明写回时库里只有这么多，任何写入都会先失效缓存
		if limit <= len(cached) || len(cached) < h.window {
			return tail(cached, limit), nil
		}
	}

	rows, err := h.repo.ListRecent(ctx, max(limit, h.window))
	if err != nil {
		return nil, err
	}
	asc := ascending(rows)
	h.cache.Refill(gen, tail(asc, h.window))
	return tail(asc, limit), nil
}

// Invalidate 新消息写入后调用
func (h *HistoryReader) Invalidate(ctx context.Context) {
	h.cache.Invalidate(ctx)
}

// ascending 把按 id 降序的查询结果转为升序响应
func ascending(rows []model.Message) []respond.MessageRespond {
	return lo.Map(rows, func(_ model.Message, i int) respond.MessageRespond {
		return respond.FromMessage(&rows[len(rows)-1-i])
	})
}

func tail(msgs []respond.MessageRespond, n int) []respond.MessageRespond {
	if n >= len(msgs) {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
