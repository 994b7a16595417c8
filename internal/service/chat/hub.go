// Package chat 实现推送会话与广播中心
// hub.go
// 核心职责：单 goroutine 事件循环
// 1. 独占在线会话表，注册/注销都经由通道进入循环
// 2. 把广播帧投递到每个会话的出站队列，从不阻塞在单个慢会话上
// 3. 周期性保活探测，驱逐未应答的会话
// 4. 周期性广播在线状态
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chat_core_server/internal/dto/respond"
	"chat_core_server/internal/infrastructure/metrics"
	"chat_core_server/pkg/constants"

	"go.uber.org/zap"
)

// HubOption Hub 可选配置
type HubOption func(*Hub)

// WithPingInterval 保活探测周期
func WithPingInterval(d time.Duration) HubOption {
	return func(h *Hub) { h.pingInterval = d }
}

// WithStatusInterval 在线状态广播周期
func WithStatusInterval(d time.Duration) HubOption {
	return func(h *Hub) { h.statusInterval = d }
}

// WithWelcome 会话注册时下发在线状态与最近 window 条消息
func WithWelcome(source HistorySource, window int) HubOption {
	return func(h *Hub) {
		h.history = source
		h.window = window
	}
}

// Hub 广播中心
type Hub struct {
	// sessions 只在 Run 所在的 goroutine 中读写，不加锁
	sessions map[string]Subscriber

	// register 不带缓冲：Register 返回后发起的广播一定排在该会话的欢迎帧之后
	register   chan Subscriber
	unregister chan Subscriber
	broadcast  chan []byte
	countReq   chan chan int
	sweepReq   chan chan struct{}
	done       chan struct{}

	// readers 仍在运行的会话读协程，停机时等待它们退出后再释放存储与缓存
	readers sync.WaitGroup

	presence       Snapshotter
	history        HistorySource
	window         int
	pingInterval   time.Duration
	statusInterval time.Duration
}

// NewHub 创建 Hub，需调用 Run 启动事件循环
func NewHub(presence Snapshotter, opts ...HubOption) *Hub {
	h := &Hub{
		sessions:       make(map[string]Subscriber),
		register:       make(chan Subscriber),
		unregister:     make(chan Subscriber),
		broadcast:      make(chan []byte, constants.HUB_CHANNEL_SIZE),
		countReq:       make(chan chan int),
		sweepReq:       make(chan chan struct{}),
		done:           make(chan struct{}),
		presence:       presence,
		pingInterval:   constants.PING_INTERVAL,
		statusInterval: constants.STATUS_INTERVAL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run 事件循环，ctx 取消后关闭所有会话并返回
func (h *Hub) Run(ctx context.Context) {
	pingTicker := time.NewTicker(h.pingInterval)
	statusTicker := time.NewTicker(h.statusInterval)
	defer func() {
		pingTicker.Stop()
		statusTicker.Stop()
		for id, s := range h.sessions {
			s.Close()
			delete(h.sessions, id)
		}
		metrics.PushSessions.Set(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("broadcast hub stopped", zap.Int("sessions", len(h.sessions)))
			return

		case s := <-h.register:
			h.sessions[s.ID()] = s
			metrics.PushSessions.Set(float64(len(h.sessions)))
			zap.L().Info("推送会话已注册", zap.String("session", s.ID()), zap.String("owner", s.Owner()))
			for _, frame := range h.welcomeFrames(ctx) {
				h.deliver(s, frame)
			}

		case s := <-h.unregister:
			if _, ok := h.sessions[s.ID()]; ok {
				delete(h.sessions, s.ID())
				metrics.PushSessions.Set(float64(len(h.sessions)))
				zap.L().Info("推送会话已注销", zap.String("session", s.ID()), zap.String("owner", s.Owner()))
			}
			s.Close()

		case frame := <-h.broadcast:
			for _, s := range h.sessions {
				h.deliver(s, frame)
			}

		case reply := <-h.countReq:
			reply <- len(h.sessions)

		case reply := <-h.sweepReq:
			h.sweep()
			close(reply)

		case <-pingTicker.C:
			h.sweep()

		case <-statusTicker.C:
			if frame, err := encodeFrame(respond.FrameStatus, h.presence.Snapshot()); err == nil {
				for _, s := range h.sessions {
					h.deliver(s, frame)
				}
			}
		}
	}
}

// welcomeFrames 在事件循环内生成，保证欢迎帧先于注册之后的任何广播
// 与并发的新消息广播可能有重叠，客户端按 id 去重
func (h *Hub) welcomeFrames(ctx context.Context) [][]byte {
	frames := make([][]byte, 0, 2)
	if frame, err := encodeFrame(respond.FrameStatus, h.presence.Snapshot()); err == nil {
		frames = append(frames, frame)
	}
	if h.history == nil || h.window <= 0 {
		return frames
	}
	msgs, err := h.history.Recent(ctx, h.window)
	if err != nil {
		zap.L().Error("读取欢迎消息失败", zap.Error(err))
		return frames
	}
	if frame, err := encodeFrame(respond.FrameHistory, msgs); err == nil {
		frames = append(frames, frame)
	}
	return frames
}

// deliver 非阻塞投递，失败只计数，会话会在下一次 sweep 被驱逐
func (h *Hub) deliver(s Subscriber, frame []byte) {
	if !s.Enqueue(frame) {
		metrics.FramesDropped.Inc()
		zap.L().Warn("出站队列已满，丢弃一帧", zap.String("session", s.ID()), zap.String("owner", s.Owner()))
	}
}

// sweep 上一轮探测后仍未应答的会话被驱逐，其余会话重新探测
func (h *Hub) sweep() {
	for id, s := range h.sessions {
		if !s.Alive() {
			delete(h.sessions, id)
			s.Close()
			metrics.SessionsEvicted.Inc()
			zap.L().Info("推送会话未应答保活探测，已驱逐", zap.String("session", id), zap.String("owner", s.Owner()))
			continue
		}
		s.SendPing()
	}
	metrics.PushSessions.Set(float64(len(h.sessions)))
}

// Register 注册会话，Hub 已停止时直接关闭会话
func (h *Hub) Register(s Subscriber) {
	select {
	case h.register <- s:
	case <-h.done:
		s.Close()
	}
}

// Unregister 注销会话，会话不在表中时只关闭它
func (h *Hub) Unregister(s Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// BroadcastMessage 向所有会话推送一条新消息
func (h *Hub) BroadcastMessage(msg respond.MessageRespond) {
	h.publish(respond.FrameMessage, msg)
}

// BroadcastStatus 向所有会话推送在线状态
func (h *Hub) BroadcastStatus(snapshot []respond.ParticipantStatus) {
	h.publish(respond.FrameStatus, snapshot)
}

func (h *Hub) publish(frameType string, data any) {
	frame, err := encodeFrame(frameType, data)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- frame:
	case <-h.done:
	}
}

// Wait 等待事件循环停止且所有会话读协程退出，ctx 到期则返回 ctx.Err()
// 需在 Run 的 ctx 取消之后调用
func (h *Hub) Wait(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		<-h.done
		h.readers.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count 当前会话数
func (h *Hub) Count() int {
	reply := make(chan int, 1)
	select {
	case h.countReq <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Sweep 立即执行一次保活检查，返回时检查已完成
func (h *Hub) Sweep() {
	reply := make(chan struct{})
	select {
	case h.sweepReq <- reply:
		<-reply
	case <-h.done:
	}
}

func encodeFrame(frameType string, data any) ([]byte, error) {
	frame, err := json.Marshal(respond.WsFrame{Type: frameType, Data: data})
	if err != nil {
		zap.L().Error("推送帧序列化失败", zap.String("type", frameType), zap.Error(err))
		return nil, err
	}
	return frame, nil
}
