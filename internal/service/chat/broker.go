// Package chat 实现推送会话与广播中心
// broker.go
// 核心职责：定义 Hub 与会话之间的接口
package chat

import (
	"context"

	"chat_core_server/internal/dto/respond"
)

// Subscriber Hub 推送的目标，一个推送会话
// Hub 只通过该接口操作会话，便于用内存实现替换 WebSocket 连接进行测试
type Subscriber interface {
	// ID 会话唯一标识，用于日志与注销
	ID() string
	// Owner 会话所属参与者
	Owner() string
	// Enqueue 非阻塞地投递一帧，队列已满或会话已关闭时返回 false
	Enqueue(frame []byte) bool
	// Alive 自上次探测以来是否收到过应答，且没有丢过帧
	Alive() bool
	// SendPing 清除 alive 标记并发出一次保活探测
	SendPing()
	// Close 关闭会话，可重复调用
	Close()
}

// Snapshotter 提供当前在线状态
type Snapshotter interface {
	Snapshot() []respond.ParticipantStatus
}

// HistorySource 提供欢迎帧中的最近消息（按 id 升序）
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]respond.MessageRespond, error)
}
