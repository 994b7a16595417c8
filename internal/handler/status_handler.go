package handler

import (
	"chat_core_server/internal/infrastructure/middleware"
	"chat_core_server/internal/service"

	"github.com/gin-gonic/gin"
)

// StatusHandler 心跳与在线状态
type StatusHandler struct {
	chatSvc service.ChatService
}

func NewStatusHandler(chatSvc service.ChatService) *StatusHandler {
	return &StatusHandler{chatSvc: chatSvc}
}

// Heartbeat POST /heartbeat
func (h *StatusHandler) Heartbeat(c *gin.Context) {
	data, err := h.chatSvc.Heartbeat(c.Request.Context(), middleware.Participant(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Status GET /status，无需认证
func (h *StatusHandler) Status(c *gin.Context) {
	data, err := h.chatSvc.GetPresence(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
