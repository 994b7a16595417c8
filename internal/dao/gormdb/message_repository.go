package gormdb

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"chat_core_server/internal/model"
	"chat_core_server/pkg/constants"
	"chat_core_server/pkg/errorx"

	"gorm.io/gorm"
)

// messageRepository MessageRepository 接口的实现
type messageRepository struct {
	db *gorm.DB
	// mu 串行化所有写入：Append 和 ImportLegacy 是仅有的写路径
	mu  sync.Mutex
	now func() time.Time
}

// NewMessageRepository 创建 MessageRepository 实例
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, now: time.Now}
}

// ValidateContent 校验消息正文：不能为空或全空白，长度不超过 4000 个字符
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errorx.New(errorx.CodeInvalidParam, "content 不能为空")
	}
	if n := utf8.RuneCountInString(content); n > constants.MAX_CONTENT_LENGTH {
		return errorx.Newf(errorx.CodeInvalidParam, "content 长度 %d 超过上限 %d", n, constants.MAX_CONTENT_LENGTH)
	}
	if !utf8.ValidString(content) {
		return errorx.New(errorx.CodeInvalidParam, "content 不是合法的 UTF-8 文本")
	}
	return nil
}

// Append 校验后插入一条消息
// reply_to 的存在性检查与插入在同一事务内完成，失败时不会留下任何写入
func (r *messageRepository) Append(ctx context.Context, sender, content string, replyTo *int64) (*model.Message, error) {
	if sender == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "sender 不能为空")
	}
	if err := ValidateContent(content); err != nil {
		return nil, err
	}
	if replyTo != nil && *replyTo <= 0 {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "reply_to %d 对应的消息不存在", *replyTo)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := &model.Message{
		CreatedAt: r.now(),
		Sender:    sender,
		Content:   content,
		ReplyTo:   replyTo,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replyTo != nil {
			var n int64
			if err := tx.Model(&model.Message{}).Where("id = ?", *replyTo).Count(&n).Error; err != nil {
				return wrapDBErrorf(err, "查询回复目标 id=%d", *replyTo)
			}
			if n == 0 {
				return errorx.Newf(errorx.CodeInvalidParam, "reply_to %d 对应的消息不存在", *replyTo)
			}
		}
		if err := tx.Create(msg).Error; err != nil {
			return wrapDBError(err, "创建消息")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// FindById 按 id 查找消息
func (r *messageRepository) FindById(ctx context.Context, id int64) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, wrapDBErrorf(err, "消息 %d 不存在", id)
	}
	return &msg, nil
}

// ListRecent 最近 limit 条消息，按 id 降序，由调用方转成时间正序
func (r *messageRepository) ListRecent(ctx context.Context, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	if limit <= 0 {
		return messages, nil
	}
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询最近 %d 条消息", limit)
	}
	return messages, nil
}

// ListAfter 增量同步：id 大于 afterId 的消息，按 id 升序
func (r *messageRepository) ListAfter(ctx context.Context, afterId int64, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	if limit <= 0 {
		return messages, nil
	}
	if err := r.db.WithContext(ctx).Where("id > ?", afterId).Order("id ASC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询 id>%d 的消息", afterId)
	}
	return messages, nil
}

// ListBefore 向前翻页：id 小于 beforeId 的消息，按 id 降序
func (r *messageRepository) ListBefore(ctx context.Context, beforeId int64, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	if limit <= 0 {
		return messages, nil
	}
	if err := r.db.WithContext(ctx).Where("id < ?", beforeId).Order("id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询 id<%d 的消息", beforeId)
	}
	return messages, nil
}

// ListMentioning 在 ListAfter 的基础上按内容子串过滤
// 只是便捷查询而非全文索引：区分大小写、不做分词
func (r *messageRepository) ListMentioning(ctx context.Context, afterId int64, pattern string, limit int) ([]model.Message, error) {
	messages := make([]model.Message, 0)
	if limit <= 0 {
		return messages, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id > ?", afterId).
		Where(r.containsClause(), pattern).
		Order("id ASC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询 id>%d 且包含 %q 的消息", afterId, pattern)
	}
	return messages, nil
}

// containsClause SQLite 的 instr 本身区分大小写；MySQL 默认排序规则不区分，需要 BINARY
func (r *messageRepository) containsClause() string {
	if r.db.Dialector.Name() == "mysql" {
		return "INSTR(BINARY content, ?) > 0"
	}
	return "INSTR(content, ?) > 0"
}

// Count 消息总数
func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Count(&n).Error; err != nil {
		return 0, wrapDBError(err, "统计消息数")
	}
	return n, nil
}
