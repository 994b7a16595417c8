// Package logger 初始化全局 zap Logger 并提供 gin 请求日志与 panic 恢复中间件
package logger

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"chat_core_server/internal/config"
	"chat_core_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init 初始化全局 Logger，之后各包通过 zap.L() 使用
// 文件始终写 JSON；dev 模式额外输出 Console 格式到标准输出
// 默认值由 config.applyDefaults 补齐
func Init(cfg *config.LogConfig, mode string) error {
	if cfg == nil {
		return fmt.Errorf("logger.Init received nil config")
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	fileCore := zapcore.NewCore(fileEncoder(), zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FileName,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	}), level)

	core := fileCore
	if mode == "dev" || mode == gin.DebugMode {
		console := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.Lock(os.Stdout), zapcore.DebugLevel)
		core = zapcore.NewTee(fileCore, console)
	}
	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))
	return nil
}

func fileEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// quietPaths 探活与指标抓取路径，不记录访问日志
var quietPaths = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// GinLogger 将 Gin 的请求日志通过 zap 输出
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, ok := quietPaths[c.Request.URL.Path]; ok {
			return
		}
		zap.L().Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", redactQuery(c.Request.URL.Query())),
			zap.String("ClientIP", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}

// redactQuery 隐藏 query 中的凭证（/ws?token=...、?ticket=...）
func redactQuery(q map[string][]string) string {
	parts := make([]string, 0, len(q))
	for k, vs := range q {
		for _, v := range vs {
			if k == "token" || k == "ticket" {
				v = "***"
			}
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, "&")
}

// GinRecovery panic 恢复
// 客户端断开（broken pipe）由 gin 自行处理；其余 panic 记录堆栈并返回统一的 500 响应
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		zap.L().Error("[Recovery from panic]",
			zap.Any("error", rec),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("stack", string(debug.Stack())),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code": errorx.CodeServerBusy,
			"msg":  errorx.ErrServerBusy.Msg,
			"data": nil,
		})
	})
}
