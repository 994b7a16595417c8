package respond

import (
	"time"

	"chat_core_server/internal/model"
)

// MessageRespond 对外暴露的消息结构，HTTP 响应与推送帧共用
type MessageRespond struct {
	Id        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	ReplyTo   *int64    `json:"reply_to"`
}

// FromMessage 模型转响应
func FromMessage(m *model.Message) MessageRespond {
	return MessageRespond{
		Id:        m.Id,
		CreatedAt: m.CreatedAt,
		Sender:    m.Sender,
		Content:   m.Content,
		ReplyTo:   m.ReplyTo,
	}
}

// FromMessages 保持入参顺序，空入参返回空切片而非 nil
func FromMessages(ms []model.Message) []MessageRespond {
	out := make([]MessageRespond, 0, len(ms))
	for i := range ms {
		out = append(out, FromMessage(&ms[i]))
	}
	return out
}
