package respond

import "time"

// ParticipantStatus 单个参与者的在线状态
// 从未出现过的参与者 online=false，两个时间字段为 null
type ParticipantStatus struct {
	Name        string     `json:"name"`
	Online      bool       `json:"online"`
	LastSeen    *time.Time `json:"last_seen"`
	LastMessage *time.Time `json:"last_message"`
}

// HeartbeatRespond 心跳响应
type HeartbeatRespond struct {
	LastSeen time.Time `json:"last_seen"`
}

// TicketRespond WebSocket 握手 ticket
type TicketRespond struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}
