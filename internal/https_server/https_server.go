// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"chat_core_server/internal/config"
	"chat_core_server/internal/handler"
	"chat_core_server/internal/infrastructure/logger"
	"chat_core_server/internal/infrastructure/middleware"
	"chat_core_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Init 创建 Gin 引擎并返回
// 配置顺序：
//  1. 创建 Gin 引擎（空白，不含默认中间件）
//  2. 注册日志、恢复、指标中间件
//  3. 配置 CORS 跨域规则
//  4. 按需挂载 TLS 重定向
//  5. 注册业务路由
func Init(handlers *handler.Handlers, mainConfig config.MainConfig) *gin.Engine {
	if mainConfig.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery())
	engine.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终结 TLS 时保持关闭
	if mainConfig.SSLRedirect {
		engine.Use(middleware.TlsHandler(mainConfig.Host, mainConfig.Port))
	}

	rt := router.NewRouter(handlers)
	rt.RegisterRoutes(engine)

	return engine
}
