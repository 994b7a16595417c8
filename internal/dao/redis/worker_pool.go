package redis

import (
	"go.uber.org/zap"
)

// startWorker 启动单个 Worker 消费循环，panic 后自动重启
func (r *RedisCache) startWorker() {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("Redis Worker panic", zap.Any("recover", rec))
			go r.startWorker()
		}
	}()

	for task := range r.taskChan {
		if task != nil {
			task()
		}
	}
}

// SubmitTask 提交异步缓存任务
// 缓存写回只是优化：通道已满时直接丢弃，不阻塞调用方也不占用调用方的时间
func (r *RedisCache) SubmitTask(action func()) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		zap.L().Debug("Redis cache closed, task dropped")
		return
	}
	select {
	case r.taskChan <- action:
	default:
		zap.L().Warn("Redis cache task channel full, task dropped")
	}
}
