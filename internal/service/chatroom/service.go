// Package chatroom 实现 service.ChatService
// HTTP handler 与 WebSocket 会话都只调用这里，四个核心操作只实现一次
package chatroom

import (
	"context"

	"chat_core_server/internal/config"
	"chat_core_server/internal/dao/gormdb"
	"chat_core_server/internal/dto/request"
	"chat_core_server/internal/dto/respond"
	"chat_core_server/internal/infrastructure/metrics"
	"chat_core_server/internal/infrastructure/mq"
	"chat_core_server/internal/model"
	"chat_core_server/internal/service/presence"
	"chat_core_server/pkg/constants"
	"chat_core_server/pkg/errorx"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Broadcaster 向所有推送会话广播，由 chat.Hub 实现
type Broadcaster interface {
	BroadcastMessage(msg respond.MessageRespond)
	BroadcastStatus(snapshot []respond.ParticipantStatus)
}

// Deps chatService 的依赖
type Deps struct {
	Repo      gormdb.MessageRepository
	History   *HistoryReader
	Presence  *presence.Tracker
	Hub       Broadcaster
	Exporter  mq.MessageExporter
	RateLimit config.RateLimitConfig
}

// chatService 聊天核心业务实现
type chatService struct {
	repo     gormdb.MessageRepository
	history  *HistoryReader
	presence *presence.Tracker
	hub      Broadcaster
	exporter mq.MessageExporter
	limiter  *limiterPool
}

// NewChatService 构造函数
func NewChatService(d Deps) *chatService {
	exporter := d.Exporter
	if exporter == nil {
		exporter = mq.NoopExporter{}
	}
	return &chatService{
		repo:     d.Repo,
		history:  d.History,
		presence: d.Presence,
		hub:      d.Hub,
		exporter: exporter,
		limiter:  newLimiterPool(d.RateLimit),
	}
}

// PostMessage 发送消息
// 写入成功后依次：失效缓存、刷新在线状态、导出、广播 message、广播 status
func (s *chatService) PostMessage(ctx context.Context, sender string, req request.PostMessageRequest) (*respond.MessageRespond, error) {
	if !s.limiter.Allow(sender) {
		return nil, errorx.ErrTooManyPosted
	}
	msg, err := s.repo.Append(ctx, sender, req.Content, req.ReplyTo)
	if err != nil {
		return nil, err
	}
	metrics.MessagesAppended.Inc()
	s.history.Invalidate(ctx)
	s.presence.TouchMessage(sender)

	out := respond.FromMessage(msg)
	s.exporter.Export(context.WithoutCancel(ctx), out)
	s.hub.BroadcastMessage(out)
	s.hub.BroadcastStatus(s.presence.Snapshot())

	zap.L().Debug("新消息", zap.Int64("id", out.Id), zap.String("sender", sender))
	return &out, nil
}

// GetHistory 拉取历史消息
//   - after_id：增量同步，id > after_id 的最早 limit 条
//   - before_id：向前翻页，id < before_id 的最近 limit 条
//   - 都不传：最新 limit 条
//
// 结果总是按 id 升序
func (s *chatService) GetHistory(ctx context.Context, req request.HistoryRequest) ([]respond.MessageRespond, error) {
	if req.AfterId != nil && req.BeforeId != nil {
		return nil, errorx.New(errorx.CodeInvalidParam, "after_id 与 before_id 不能同时指定")
	}
	if req.Mentioning != "" && req.AfterId == nil {
		return nil, errorx.New(errorx.CodeInvalidParam, "mentioning 需要与 after_id 一起使用")
	}
	limit := constants.DEFAULT_PAGE_LIMIT
	if req.Limit != nil {
		if *req.Limit < 0 {
			return nil, errorx.Newf(errorx.CodeInvalidParam, "limit 不能为负数: %d", *req.Limit)
		}
		limit = lo.Clamp(*req.Limit, 0, constants.MAX_PAGE_LIMIT)
	}
	if limit == 0 {
		return []respond.MessageRespond{}, nil
	}

	var (
		rows []model.Message
		err  error
	)
	switch {
	case req.AfterId != nil && req.Mentioning != "":
		rows, err = s.repo.ListMentioning(ctx, *req.AfterId, req.Mentioning, limit)
	case req.AfterId != nil:
		rows, err = s.repo.ListAfter(ctx, *req.AfterId, limit)
	case req.BeforeId != nil:
		rows, err = s.repo.ListBefore(ctx, *req.BeforeId, limit)
		if err == nil {
			return ascending(rows), nil
		}
	default:
		return s.history.Recent(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	return respond.FromMessages(rows), nil
}

// GetMessage 按 id 获取单条消息
func (s *chatService) GetMessage(ctx context.Context, id int64) (*respond.MessageRespond, error) {
	msg, err := s.repo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	out := respond.FromMessage(msg)
	return &out, nil
}

// Heartbeat 记录活动并广播在线状态
func (s *chatService) Heartbeat(ctx context.Context, sender string) (*respond.HeartbeatRespond, error) {
	seen := s.presence.TouchSeen(sender)
	s.hub.BroadcastStatus(s.presence.Snapshot())
	return &respond.HeartbeatRespond{LastSeen: seen}, nil
}

// GetPresence 全部参与者的在线状态
func (s *chatService) GetPresence(ctx context.Context) ([]respond.ParticipantStatus, error) {
	return s.presence.Snapshot(), nil
}

// Close 释放后台资源
func (s *chatService) Close() {
	s.limiter.Shutdown()
}
