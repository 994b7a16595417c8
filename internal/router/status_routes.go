package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterStatusRoutes 心跳与在线状态
func (rt *Router) RegisterStatusRoutes(public, authed *gin.RouterGroup) {
	authed.POST("/heartbeat", rt.handlers.Status.Heartbeat)
	public.GET("/status", rt.handlers.Status.Status)
}
