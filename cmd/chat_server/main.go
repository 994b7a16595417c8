package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat_core_server/internal/config"
	"chat_core_server/internal/dao/gormdb"
	myredis "chat_core_server/internal/dao/redis"
	"chat_core_server/internal/handler"
	"chat_core_server/internal/https_server"
	"chat_core_server/internal/infrastructure/logger"
	"chat_core_server/internal/infrastructure/mq"
	"chat_core_server/internal/service"
	"chat_core_server/internal/service/auth"
	"chat_core_server/internal/service/chat"
	"chat_core_server/internal/service/chatroom"
	"chat_core_server/internal/service/presence"
	"chat_core_server/pkg/util/jwt"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf, err := config.GetConfig()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zap.L().Sync()
	zap.L().Info("日志初始化成功")

	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("初始化校验翻译器失败", zap.Error(err))
	}

	// 3. 参与者名单，配置错误直接退出
	registry, err := auth.NewRegistry(conf.Participants)
	if err != nil {
		zap.L().Fatal("参与者配置无效", zap.Error(err))
	}
	zap.L().Info("参与者名单加载成功", zap.Strings("participants", registry.Names()))

	// 4. 初始化消息库，空库时导入旧日志
	repos, err := gormdb.Init(conf.DBConfig)
	if err != nil {
		zap.L().Fatal("数据库初始化失败", zap.Error(err))
	}
	defer repos.Close()
	if n, err := repos.Message.ImportLegacy(context.Background(), conf.DBConfig.LegacyLogPath); err != nil {
		zap.L().Fatal("导入旧日志失败", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("已导入旧日志", zap.Int("rows", n))
	}
	zap.L().Info("数据库初始化成功", zap.String("driver", conf.DBConfig.Driver))

	// 5. 初始化 Redis（可选）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	historyCache, closeCache, err := myredis.Init(ctx, conf.RedisConfig)
	if err != nil {
		zap.L().Fatal("Redis 初始化失败", zap.Error(err))
	}
	defer closeCache()

	// 6. 初始化 Kafka 导出（可选）
	exporter := mq.NewKafkaExporter(conf.KafkaConfig)
	defer exporter.Close()

	// 7. 在线状态、广播中心、Service 层
	tracker := presence.NewTracker(registry.Names(), conf.ChatConfig.Liveness())
	history := chatroom.NewHistoryReader(repos.Message, historyCache, conf.ChatConfig.HistoryWindow)
	hub := chat.NewHub(tracker,
		chat.WithPingInterval(conf.ChatConfig.Ping()),
		chat.WithStatusInterval(conf.ChatConfig.Status()),
		chat.WithWelcome(history, conf.ChatConfig.HistoryWindow),
	)
	go hub.Run(ctx)

	chatSvc := chatroom.NewChatService(chatroom.Deps{
		Repo:      repos.Message,
		History:   history,
		Presence:  tracker,
		Hub:       hub,
		Exporter:  exporter,
		RateLimit: conf.RateLimitConfig,
	})
	defer chatSvc.Close()
	zap.L().Info("Service 层初始化成功")

	issuer := jwt.NewIssuer(conf.JWTConfig.Secret, time.Duration(conf.JWTConfig.TicketExpiry)*time.Second)

	// 8. 初始化 HTTP 服务器
	handlers := handler.NewHandlers(service.NewServices(chatSvc), hub, registry, issuer)
	engine := https_server.Init(handlers, conf.MainConfig)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}

	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("关闭服务器...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP 服务关闭失败", zap.Error(err))
	}
	// Shutdown 不等待已升级的 WebSocket 连接：停止广播中心关闭全部推送会话，
	// 等读协程退出后再由 defer 关闭缓存与存储
	cancel()
	if err := hub.Wait(shutdownCtx); err != nil {
		zap.L().Warn("等待推送会话退出超时", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
}
