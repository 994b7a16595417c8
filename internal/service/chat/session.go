// Package chat 实现推送会话与广播中心
// session.go
// 核心职责：一个 WebSocket 连接对应一个 Session
// 1. 读协程：读取客户端帧，交给 FrameHandler，应答写回同一出站队列
// 2. 写协程：出站队列与保活 ping 的唯一写者，保证同一会话内帧的顺序
package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chat_core_server/pkg/constants"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// FrameHandler 处理一帧客户端请求，返回需要写回的应答帧（nil 表示不应答）
type FrameHandler func(ctx context.Context, owner string, data []byte) []byte

// Session 一个已认证的推送会话
type Session struct {
	id      string
	owner   string
	conn    *websocket.Conn
	send    chan []byte
	ping    chan struct{}
	done    chan struct{}
	onFrame FrameHandler

	// alive 自上次探测以来收到过 pong 或任意客户端帧
	alive atomic.Bool
	// stale 出站队列满过一次，等待被 sweep 驱逐
	stale     atomic.Bool
	closeOnce sync.Once
}

// NewSession 创建会话，owner 在握手阶段已经认证
func NewSession(conn *websocket.Conn, owner string, onFrame FrameHandler) *Session {
	s := &Session{
		id:      uuid.NewString(),
		owner:   owner,
		conn:    conn,
		send:    make(chan []byte, constants.CHANNEL_SIZE),
		ping:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onFrame: onFrame,
	}
	s.alive.Store(true)
	return s
}

func (s *Session) ID() string    { return s.id }
func (s *Session) Owner() string { return s.owner }

// Enqueue 非阻塞投递，队列满时标记 stale 并丢弃
func (s *Session) Enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		s.stale.Store(true)
		return false
	}
}

func (s *Session) Alive() bool {
	return s.alive.Load() && !s.stale.Load()
}

func (s *Session) SendPing() {
	s.alive.Store(false)
	select {
	case s.ping <- struct{}{}:
	default:
	}
}

// Close 通知写协程发送 close 帧并关闭连接
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// writePump 出站队列的唯一消费者
func (s *Session) writePump() {
	defer s.conn.Close()
	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(constants.WS_WRITE_TIMEOUT))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Debug("ws write failed", zap.String("session", s.id), zap.Error(err))
				return
			}
		case <-s.ping:
			_ = s.conn.SetWriteDeadline(time.Now().Add(constants.WS_WRITE_TIMEOUT))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Debug("ws ping failed", zap.String("session", s.id), zap.Error(err))
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(constants.WS_WRITE_TIMEOUT))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump 读到错误（包括写协程关闭连接）即退出并注销会话
func (s *Session) readPump(ctx context.Context, hub *Hub) {
	defer func() {
		hub.Unregister(s)
		s.Close()
	}()

	s.conn.SetReadLimit(constants.WS_READ_LIMIT)
	s.conn.SetPongHandler(func(string) error {
		s.alive.Store(true)
		return nil
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Info("ws 连接异常断开", zap.String("session", s.id), zap.String("owner", s.owner), zap.Error(err))
			}
			return
		}
		s.alive.Store(true)
		if reply := s.onFrame(ctx, s.owner, data); reply != nil {
			s.Enqueue(reply)
		}
	}
}
