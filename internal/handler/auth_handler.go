// Package handler 提供 HTTP 请求处理器
// 本文件处理认证相关的 API 请求
package handler

import (
	"chat_core_server/internal/dto/respond"
	"chat_core_server/internal/infrastructure/middleware"
	"chat_core_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 认证请求处理器
type AuthHandler struct {
	issuer *jwt.Issuer
}

// NewAuthHandler 创建认证处理器实例
func NewAuthHandler(issuer *jwt.Issuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// IssueTicket 签发 WebSocket 握手票据
// POST /auth/ticket
// 请求头: Authorization: Bearer <token>
// 响应: respond.TicketRespond
//
// 浏览器的 WebSocket API 不能设置请求头，客户端先用 token 换一张短时票据，
// 再以 /ws?ticket=xxx 建立连接，避免长期 token 出现在 URL 中
func (h *AuthHandler) IssueTicket(c *gin.Context) {
	participant := middleware.Participant(c)
	ticket, expiresAt, err := h.issuer.GenerateTicket(participant)
	if err != nil {
		zap.L().Error("签发票据失败", zap.String("participant", participant), zap.Error(err))
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.TicketRespond{Ticket: ticket, ExpiresAt: expiresAt})
}
