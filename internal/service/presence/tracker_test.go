package presence

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTracker_NeverSeenIsOffline(t *testing.T) {
	tr := NewTracker([]string{"Alice", "Bob"}, 5*time.Minute)

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, "Alice", snap[0].Name)
	require.Equal(t, "Bob", snap[1].Name)
	for _, s := range snap {
		require.False(t, s.Online)
		require.Nil(t, s.LastSeen)
		require.Nil(t, s.LastMessage)
	}
}

func TestTracker_OfflineAfterTimeout(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker([]string{"Alice", "Bob"}, 5*time.Minute, WithClock(clock.Now))

	seen := tr.TouchSeen("Alice")
	require.Equal(t, clock.Now(), seen)
	require.True(t, tr.IsOnline("Alice"))
	require.False(t, tr.IsOnline("Bob"))

	clock.Advance(5*time.Minute - time.Second)
	require.True(t, tr.IsOnline("Alice"))

	// 恰好到达超时即离线
	clock.Advance(time.Second)
	require.False(t, tr.IsOnline("Alice"))
	snap := tr.Snapshot()
	require.False(t, snap[0].Online)
	require.NotNil(t, snap[0].LastSeen)
	require.True(t, snap[0].LastSeen.Equal(seen))
}

func TestTracker_TouchMessageUpdatesBoth(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker([]string{"Alice"}, time.Minute, WithClock(clock.Now))

	tr.TouchMessage("Alice")
	snap := tr.Snapshot()
	require.True(t, snap[0].Online)
	require.NotNil(t, snap[0].LastMessage)
	require.True(t, snap[0].LastMessage.Equal(*snap[0].LastSeen))

	// 未注册的名称被忽略
	tr.TouchSeen("Mallory")
	require.False(t, tr.IsOnline("Mallory"))
	require.Len(t, tr.Snapshot(), 1)
}
