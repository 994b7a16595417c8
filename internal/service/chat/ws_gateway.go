// Package chat 实现推送会话与广播中心
// ws_gateway.go
// 核心职责：把已认证的 HTTP 请求升级为 WebSocket 并启动会话
package chat

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// gorilla/websocket 默认拒绝跨域握手；访问控制由 token 完成，这里放行任何来源
var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Serve 升级连接并注册会话，调用方必须已完成认证
// 升级失败时 upgrader 已经写回 HTTP 错误
func Serve(w http.ResponseWriter, r *http.Request, hub *Hub, owner string, onFrame FrameHandler) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s := NewSession(conn, owner, onFrame)
	ctx, cancel := context.WithCancel(context.Background())

	go s.writePump()
	hub.Register(s)
	hub.readers.Add(1)
	go func() {
		defer hub.readers.Done()
		defer cancel()
		s.readPump(ctx, hub)
	}()
	zap.L().Info("ws连接成功", zap.String("session", s.ID()), zap.String("owner", owner))
	return nil
}
