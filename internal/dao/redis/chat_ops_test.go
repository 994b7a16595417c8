package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"chat_core_server/internal/dto/respond"

	"github.com/stretchr/testify/require"
)

// memoryCache 同步执行任务的内存实现
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryCache() *memoryCache { return &memoryCache{data: map[string]string{}} }

func (m *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) SubmitTask(action func()) { action() }

func TestHistoryCache_RefillThenHit(t *testing.T) {
	hc := NewHistoryCache(newMemoryCache())
	ctx := context.Background()

	_, hit, gen := hc.Recent(ctx)
	require.False(t, hit)

	hc.Refill(gen, []respond.MessageRespond{{Id: 1, Sender: "Alice", Content: "hi"}})
	msgs, hit, _ := hc.Recent(ctx)
	require.True(t, hit)
	require.Len(t, msgs, 1)
	require.Equal(t, int64(1), msgs[0].Id)
}

func TestHistoryCache_StaleRefillDiscarded(t *testing.T) {
	hc := NewHistoryCache(newMemoryCache())
	ctx := context.Background()

	_, _, gen := hc.Recent(ctx)
	// 读库与写回之间有新消息写入
	hc.Invalidate(ctx)
	hc.Refill(gen, []respond.MessageRespond{{Id: 1}})

	_, hit, _ := hc.Recent(ctx)
	require.False(t, hit)
}

func TestNoopHistoryCache(t *testing.T) {
	var hc HistoryCache = NoopHistoryCache{}
	hc.Refill(0, []respond.MessageRespond{{Id: 1}})
	_, hit, _ := hc.Recent(context.Background())
	require.False(t, hit)
}
