package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler 把 HTTP 请求重定向到 HTTPS，仅在 mainConfig.sslRedirect 开启时挂载
func TlsHandler(host string, port int) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect: true,
		SSLHost:     host + ":" + strconv.Itoa(port),
	})

	return func(c *gin.Context) {
		// 重定向时 Process 已写回响应并返回错误，终止后续处理
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			zap.L().Debug("TLS redirection", zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
