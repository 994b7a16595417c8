package respond

// WsFrame 服务端发往推送会话的帧
//   - result / error：对客户端请求帧的应答，携带 request_id
//   - message / status / history：服务端主动推送
type WsFrame struct {
	Type      string `json:"type"`
	RequestId string `json:"request_id,omitempty"`
	Op        string `json:"op,omitempty"`
	Code      int    `json:"code,omitempty"`
	Msg       string `json:"msg,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// 服务端帧类型
const (
	FrameResult  = "result"
	FrameError   = "error"
	FrameMessage = "message"
	FrameStatus  = "status"
	FrameHistory = "history"
)
