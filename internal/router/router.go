// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"chat_core_server/internal/handler"
	"chat_core_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router 路由管理器，持有 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 公开路由：历史、单条消息、在线状态、WebSocket（自行认证）、运维接口
// 认证路由：发送消息、心跳、签发票据
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	public := r.Group("")
	authed := r.Group("", middleware.TokenAuth(rt.handlers.Registry))

	rt.RegisterMessageRoutes(public, authed)
	rt.RegisterStatusRoutes(public, authed)
	rt.RegisterAuthRoutes(authed)
	rt.RegisterWebSocketRoutes(public)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
}
