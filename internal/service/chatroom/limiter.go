package chatroom

import (
	"sync"
	"time"

	"chat_core_server/internal/config"

	"golang.org/x/time/rate"
)

// limiterEntry 单个参与者的令牌桶
type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool 按参与者名称限流发消息，两种传输共用
type limiterPool struct {
	mu            sync.Mutex
	m             map[string]*limiterEntry
	cfg           config.RateLimitConfig
	startCleanup  sync.Once
	ttl           time.Duration
	cleanupPeriod time.Duration
	stopCh        chan struct{}
}

func newLimiterPool(cfg config.RateLimitConfig) *limiterPool {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &limiterPool{
		m:             make(map[string]*limiterEntry),
		cfg:           cfg,
		ttl:           10 * time.Minute,
		cleanupPeriod: time.Minute,
		stopCh:        make(chan struct{}),
	}
}

// Allow RPS <= 0 表示不限流
func (p *limiterPool) Allow(key string) bool {
	if p.cfg.RPS <= 0 {
		return true
	}
	return p.get(key).Allow()
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.startCleanup.Do(func() { go p.cleanupLoop() })

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.m[key]; ok {
		e.lastSeen = time.Now()
		return e.l
	}
	l := rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: time.Now()}
	return l
}

// Shutdown 停止清理协程
func (p *limiterPool) Shutdown() {
	select {
	case <-p.stopCh:
	default:
		close(p.stopCh)
	}
}

// cleanupLoop 移除 ttl 内未使用的令牌桶
func (p *limiterPool) cleanupLoop() {
	ticker := time.NewTicker(p.cleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-p.ttl)
			p.mu.Lock()
			for k, e := range p.m {
				if e.lastSeen.Before(cutoff) {
					delete(p.m, k)
				}
			}
			p.mu.Unlock()
		case <-p.stopCh:
			return
		}
	}
}
