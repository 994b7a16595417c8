// Package metrics 定义进程内的 Prometheus 指标
// 指标在 init 中注册到默认 Registry，由 GET /metrics 暴露
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// MessagesAppended 成功写入的消息数
	MessagesAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_appended_total",
		Help: "Number of messages appended to the store.",
	})

	// PushSessions 当前推送会话数
	PushSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_push_sessions",
		Help: "Number of registered push sessions.",
	})

	// FramesDropped 因出站队列已满被丢弃的帧
	FramesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_frames_dropped_total",
		Help: "Frames dropped because a session outbound queue was full.",
	})

	// SessionsEvicted 保活探测未应答而被驱逐的会话
	SessionsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_sessions_evicted_total",
		Help: "Push sessions evicted by the liveness sweep.",
	})

	// HTTPRequests 按路由模板统计的 HTTP 请求
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(MessagesAppended)
	prometheus.MustRegister(PushSessions)
	prometheus.MustRegister(FramesDropped)
	prometheus.MustRegister(SessionsEvicted)
	prometheus.MustRegister(HTTPRequests)
}
