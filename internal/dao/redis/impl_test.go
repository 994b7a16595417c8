package redis

import (
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_SubmitAfterCloseIsDropped(t *testing.T) {
	// 不发起任何命令，客户端不会真正建立连接
	rc := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), 1, 1)
	require.NoError(t, rc.Close())

	// 关闭后仍在处理 history 请求的会话可能提交回填任务
	require.NotPanics(t, func() {
		rc.SubmitTask(func() { t.Error("task ran after close") })
	})
	require.NoError(t, rc.Close())
}
