// Package router 提供 HTTP 路由注册
// 本文件定义消息相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMessageRoutes 注册消息相关路由
// 发送需要认证，读取公开
func (rt *Router) RegisterMessageRoutes(public, authed *gin.RouterGroup) {
	authed.POST("/messages", rt.handlers.Message.PostMessage) // 发送消息

	public.GET("/messages", rt.handlers.Message.GetHistory)     // 拉取历史
	public.GET("/messages/:id", rt.handlers.Message.GetMessage) // 单条消息
}
