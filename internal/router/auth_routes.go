// Package router 提供 HTTP 路由注册
// 本文件定义认证相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册认证相关路由
func (rt *Router) RegisterAuthRoutes(authed *gin.RouterGroup) {
	authGroup := authed.Group("/auth")
	{
		// POST /auth/ticket - 用 token 换取短时 WebSocket 握手票据
		authGroup.POST("/ticket", rt.handlers.Auth.IssueTicket)
	}
}
