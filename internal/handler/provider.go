// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"chat_core_server/internal/service"
	"chat_core_server/internal/service/auth"
	"chat_core_server/internal/service/chat"
	"chat_core_server/pkg/util/jwt"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Message *MessageHandler
	Status  *StatusHandler
	Auth    *AuthHandler
	Ws      *WsHandler

	// Registry 供 Router 构造 token 认证中间件
	Registry *auth.Registry
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services, hub *chat.Hub, registry *auth.Registry, issuer *jwt.Issuer) *Handlers {
	return &Handlers{
		Message:  NewMessageHandler(svc.Chat),
		Status:   NewStatusHandler(svc.Chat),
		Auth:     NewAuthHandler(issuer),
		Ws:       NewWsHandler(svc.Chat, hub, registry, issuer),
		Registry: registry,
	}
}
