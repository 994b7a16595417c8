package middleware

import (
	"strconv"

	"chat_core_server/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 按路由模板统计请求数，未匹配路由记为 "unmatched" 以免标签基数失控
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
