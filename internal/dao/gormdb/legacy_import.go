package gormdb

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"chat_core_server/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// legacyEntry 旧版聊天日志中的一行（JSON Lines）
type legacyEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
}

// ImportLegacy 空库启动时导入旧版日志
// 只要表中已有任意一行，导入就永久跳过；按文件顺序分配 id，保留原始发送者和时间
func (r *messageRepository) ImportLegacy(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var existing int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Count(&existing).Error; err != nil {
		return 0, wrapDBError(err, "统计消息数")
	}
	if existing > 0 {
		zap.L().Debug("消息库非空，跳过旧日志导入", zap.Int64("rows", existing))
		return 0, nil
	}

	rows, err := readLegacyLog(path, r.now)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zap.L().Info("旧日志不存在，跳过导入", zap.String("path", path))
			return 0, nil
		}
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 事务内再次确认为空库，防止并发写入
		var n int64
		if err := tx.Model(&model.Message{}).Count(&n).Error; err != nil {
			return wrapDBError(err, "统计消息数")
		}
		if n > 0 {
			rows = nil
			return nil
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return wrapDBError(err, "导入旧日志")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	zap.L().Info("旧日志导入完成", zap.String("path", path), zap.Int("rows", len(rows)))
	return len(rows), nil
}

func readLegacyLog(path string, now func() time.Time) ([]*model.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []*model.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry legacyEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			zap.L().Warn("旧日志行解析失败，已跳过", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if entry.Sender == "" || strings.TrimSpace(entry.Content) == "" {
			zap.L().Warn("旧日志行缺少发送者或内容，已跳过", zap.Int("line", lineNo))
			continue
		}
		createdAt := entry.Timestamp
		if createdAt.IsZero() {
			createdAt = now()
		}
		rows = append(rows, &model.Message{
			CreatedAt: createdAt,
			Sender:    entry.Sender,
			Content:   entry.Content,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read legacy log %s: %w", path, err)
	}
	return rows, nil
}
