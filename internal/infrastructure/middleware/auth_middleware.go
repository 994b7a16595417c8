package middleware

import (
	"net/http"

	"chat_core_server/internal/service/auth"
	"chat_core_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// ParticipantKey gin.Context 中已认证参与者名称的键
const ParticipantKey = "participant"

// TokenAuth Bearer token 认证中间件
// token 通过 Registry 解析为参与者名称并存入上下文，sender 只从这里取
func TokenAuth(registry *auth.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "缺少 Authorization: Bearer <token>",
			})
			return
		}
		name, ok := registry.Resolve(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "token 无效",
			})
			return
		}
		c.Set(ParticipantKey, name)
		c.Next()
	}
}

// Participant 取出 TokenAuth 写入的参与者名称
func Participant(c *gin.Context) string {
	return c.GetString(ParticipantKey)
}
