// Package model 定义数据库实体模型
// 本文件定义消息模型，消息是系统中唯一持久化的实体
package model

import "time"

// Message 消息模型
// 对应数据库 message 表，只追加，插入后不可修改、不可删除
type Message struct {
	// Id 自增主键，由存储层分配，严格递增且不复用，是唯一的排序依据
	Id int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// CreatedAt 插入时间，由存储层在插入时写入，不接受客户端传值
	CreatedAt time.Time `gorm:"column:created_at;index:idx_message_created_at;not null"`

	// Sender 发送者名称，由认证结果解析而来
	Sender string `gorm:"column:sender;index:idx_message_sender;type:varchar(64);not null"`

	// Content 消息正文，1-4000 个字符
	Content string `gorm:"column:content;type:text;not null"`

	// ReplyTo 回复的消息 id，弱引用，仅用于客户端渲染线程
	ReplyTo *int64 `gorm:"column:reply_to;index:idx_message_reply_to"`
}

// TableName 指定表名
func (Message) TableName() string {
	return "message"
}
