// Package mq 把新写入的消息导出到外部消息队列，供其他系统订阅
// 导出是旁路：失败只记录日志，不影响发消息本身
package mq

import (
	"context"

	"chat_core_server/internal/dto/respond"
)

// MessageExporter 消息导出接口
type MessageExporter interface {
	// Export 非阻塞地导出一条消息
	Export(ctx context.Context, msg respond.MessageRespond)
	// Close 刷出缓冲并释放连接
	Close() error
}

// NoopExporter 未启用 Kafka 时使用
type NoopExporter struct{}

func (NoopExporter) Export(context.Context, respond.MessageRespond) {}

func (NoopExporter) Close() error { return nil }
