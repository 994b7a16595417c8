package gormdb

import (
	"context"

	"chat_core_server/internal/model"
)

// MessageRepository 消息数据访问接口
// 消息表只追加：Append 是唯一写入路径，没有更新和删除
type MessageRepository interface {
	// Append 校验内容与 reply_to 后插入一条消息，分配 id 和时间戳
	Append(ctx context.Context, sender, content string, replyTo *int64) (*model.Message, error)
	// FindById 按 id 查找消息，不存在返回 CodeNotFound
	FindById(ctx context.Context, id int64) (*model.Message, error)
	// ListRecent 最近 limit 条消息，按 id 降序
	ListRecent(ctx context.Context, limit int) ([]model.Message, error)
	// ListAfter id 大于 afterId 的消息，按 id 升序
	ListAfter(ctx context.Context, afterId int64, limit int) ([]model.Message, error)
	// ListBefore id 小于 beforeId 的消息，按 id 降序
	ListBefore(ctx context.Context, beforeId int64, limit int) ([]model.Message, error)
	// ListMentioning 同 ListAfter，额外要求内容包含 pattern（区分大小写的子串匹配）
	ListMentioning(ctx context.Context, afterId int64, pattern string, limit int) ([]model.Message, error)
	// Count 消息总数
	Count(ctx context.Context) (int64, error)
	// ImportLegacy 仅在空库时导入旧版日志，返回导入条数
	ImportLegacy(ctx context.Context, path string) (int, error)
}
