package request

// PostMessageRequest 发送消息请求
// sender 由认证结果决定，请求体中不接受
// 使用位置:
//   - internal/handler/message_handler.go: PostMessage
//   - internal/handler/ws_handler.go: post 帧
type PostMessageRequest struct {
	Content string `json:"content" binding:"required"`
	ReplyTo *int64 `json:"reply_to" binding:"omitempty,gt=0"`
}

// HistoryRequest 拉取历史消息请求
// after_id 与 before_id 互斥；都不传时返回最新一页；mentioning 仅能与 after_id 搭配
type HistoryRequest struct {
	AfterId    *int64 `json:"after_id" form:"after_id" binding:"omitempty,gte=0"`
	BeforeId   *int64 `json:"before_id" form:"before_id" binding:"omitempty,gte=0"`
	Limit      *int   `json:"limit" form:"limit"`
	Mentioning string `json:"mentioning" form:"mentioning"`
}

// GetMessageRequest 按 id 获取单条消息
type GetMessageRequest struct {
	Id int64 `json:"id" uri:"id" binding:"required,gt=0"`
}
