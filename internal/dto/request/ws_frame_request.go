package request

// WsFrame 推送会话中客户端发来的帧头
// type 决定帧体按哪个请求结构解析，request_id 原样带回给对应的 result/error 帧
type WsFrame struct {
	Type      string `json:"type" binding:"required,oneof=post history heartbeat status get"`
	RequestId string `json:"request_id"`
}

// 客户端帧类型
const (
	FramePost      = "post"
	FrameHistory   = "history"
	FrameHeartbeat = "heartbeat"
	FrameStatus    = "status"
	FrameGet       = "get"
)
