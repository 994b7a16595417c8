// Package handler 提供 HTTP 请求处理器
// 本文件处理消息相关的 API 请求
package handler

import (
	"chat_core_server/internal/dto/request"
	"chat_core_server/internal/infrastructure/middleware"
	"chat_core_server/internal/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息请求处理器
type MessageHandler struct {
	chatSvc service.ChatService
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(chatSvc service.ChatService) *MessageHandler {
	return &MessageHandler{chatSvc: chatSvc}
}

// PostMessage 发送消息
// POST /messages
// 请求头: Authorization: Bearer <token>
// 请求体: request.PostMessageRequest
// 响应: respond.MessageRespond
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req request.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.chatSvc.PostMessage(c.Request.Context(), middleware.Participant(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetHistory 拉取历史消息
// GET /messages?after_id=&before_id=&limit=&mentioning=
// 响应: []respond.MessageRespond（按 id 升序）
func (h *MessageHandler) GetHistory(c *gin.Context) {
	var req request.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.chatSvc.GetHistory(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetMessage 获取单条消息
// GET /messages/:id
func (h *MessageHandler) GetMessage(c *gin.Context) {
	var req request.GetMessageRequest
	if err := c.ShouldBindUri(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.chatSvc.GetMessage(c.Request.Context(), req.Id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
