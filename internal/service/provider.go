// Package service 提供业务逻辑层
// 本文件实现 Service 层的聚合，Handler 层与推送会话通过它访问业务
package service

// Services 聚合所有 Service 实例
type Services struct {
	Chat ChatService
}

// NewServices 聚合 Service 实例
func NewServices(chat ChatService) *Services {
	return &Services{Chat: chat}
}
