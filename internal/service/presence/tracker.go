// Package presence 维护参与者的 last_seen / last_message 并据此判定在线状态
// 状态只在内存中，进程重启后所有参与者从离线开始
package presence

import (
	"sync"
	"time"

	"chat_core_server/internal/dto/respond"
)

type entry struct {
	lastSeen    time.Time
	lastMessage time.Time
}

// Tracker 在线状态跟踪器
type Tracker struct {
	mu      sync.RWMutex
	names   []string
	entries map[string]*entry
	timeout time.Duration
	now     func() time.Time
}

// Option 可选配置
type Option func(*Tracker)

// WithClock 替换时钟，测试使用
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker names 为 Registry 中的全部参与者（决定 Snapshot 的顺序），timeout 为在线判定窗口
func NewTracker(names []string, timeout time.Duration, opts ...Option) *Tracker {
	t := &Tracker{
		names:   names,
		entries: make(map[string]*entry, len(names)),
		timeout: timeout,
		now:     time.Now,
	}
	for _, n := range names {
		t.entries[n] = &entry{}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TouchSeen 记录一次活动（心跳或发消息），返回记录的时间
func (t *Tracker) TouchSeen(name string) time.Time {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[name]; ok {
		e.lastSeen = now
	}
	return now
}

// TouchMessage 记录一次发消息，同时刷新 last_seen
func (t *Tracker) TouchMessage(name string) time.Time {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[name]; ok {
		e.lastSeen = now
		e.lastMessage = now
	}
	return now
}

// IsOnline last_seen 在 timeout 窗口内即为在线
func (t *Tracker) IsOnline(name string) bool {
	now := t.now()
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[name]
	return ok && t.online(e, now)
}

// Snapshot 按注册顺序返回全部参与者状态
func (t *Tracker) Snapshot() []respond.ParticipantStatus {
	now := t.now()
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]respond.ParticipantStatus, 0, len(t.names))
	for _, n := range t.names {
		e := t.entries[n]
		out = append(out, respond.ParticipantStatus{
			Name:        n,
			Online:      t.online(e, now),
			LastSeen:    timePtr(e.lastSeen),
			LastMessage: timePtr(e.lastMessage),
		})
	}
	return out
}

func (t *Tracker) online(e *entry, now time.Time) bool {
	return !e.lastSeen.IsZero() && now.Sub(e.lastSeen) < t.timeout
}

func timePtr(v time.Time) *time.Time {
	if v.IsZero() {
		return nil
	}
	return &v
}
