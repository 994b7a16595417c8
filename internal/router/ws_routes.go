// Package router 提供 HTTP 路由注册
// 本文件定义 WebSocket 路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterWebSocketRoutes 注册 WebSocket 路由
// 握手认证在 handler 内完成，不挂 TokenAuth 中间件
func (rt *Router) RegisterWebSocketRoutes(rg *gin.RouterGroup) {
	// 请求示例: ws://host:port/ws?ticket=xxx
	rg.GET("/ws", rt.handlers.Ws.Connect)
}
