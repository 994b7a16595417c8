// Package service 定义业务层接口
// 本文件定义 ChatService，HTTP 与 WebSocket 两种传输共用同一个实现
package service

import (
	"context"

	"chat_core_server/internal/dto/request"
	"chat_core_server/internal/dto/respond"
)

// ChatService 聊天核心业务接口
// 调用方负责认证：sender 总是由 token 解析出的参与者名称
type ChatService interface {
	// PostMessage 发送消息：校验、写入、广播 message 与 status
	PostMessage(ctx context.Context, sender string, req request.PostMessageRequest) (*respond.MessageRespond, error)
	// GetHistory 拉取历史消息，结果总是按 id 升序
	GetHistory(ctx context.Context, req request.HistoryRequest) ([]respond.MessageRespond, error)
	// GetMessage 按 id 获取单条消息
	GetMessage(ctx context.Context, id int64) (*respond.MessageRespond, error)
	// Heartbeat 记录一次活动并广播在线状态
	Heartbeat(ctx context.Context, sender string) (*respond.HeartbeatRespond, error)
	// GetPresence 全部参与者的在线状态
	GetPresence(ctx context.Context) ([]respond.ParticipantStatus, error)
}
