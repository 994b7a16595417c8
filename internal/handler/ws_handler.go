// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 握手和推送会话内的请求帧
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"chat_core_server/internal/dto/request"
	"chat_core_server/internal/dto/respond"
	"chat_core_server/internal/service"
	"chat_core_server/internal/service/auth"
	"chat_core_server/internal/service/chat"
	"chat_core_server/pkg/errorx"
	"chat_core_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

// WsHandler WebSocket 处理器
// 会话内的 post/history/heartbeat/status/get 帧与 HTTP 接口走同一个 ChatService
type WsHandler struct {
	chatSvc  service.ChatService
	hub      *chat.Hub
	registry *auth.Registry
	issuer   *jwt.Issuer
}

// NewWsHandler 创建 WebSocket 处理器实例
func NewWsHandler(chatSvc service.ChatService, hub *chat.Hub, registry *auth.Registry, issuer *jwt.Issuer) *WsHandler {
	return &WsHandler{chatSvc: chatSvc, hub: hub, registry: registry, issuer: issuer}
}

// Connect 建立推送会话
// GET /ws
// 认证方式（任选其一）：
//   - 请求头 Authorization: Bearer <token>
//   - 查询参数 token=<token>
//   - 查询参数 ticket=<ticket>，由 POST /auth/ticket 签发
//
// 认证失败在升级前直接返回 401
func (h *WsHandler) Connect(c *gin.Context) {
	owner, ok := h.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorx.CodeUnauthorized,
			"msg":  errorx.ErrUnauthorized.Msg,
		})
		return
	}
	if err := chat.Serve(c.Writer, c.Request, h.hub, owner, h.HandleFrame); err != nil {
		zap.L().Warn("ws升级失败", zap.String("owner", owner), zap.Error(err))
	}
}

func (h *WsHandler) authenticate(c *gin.Context) (string, bool) {
	if token := auth.BearerToken(c.GetHeader("Authorization")); token != "" {
		return h.registry.Resolve(token)
	}
	if token := c.Query("token"); token != "" {
		return h.registry.Resolve(token)
	}
	if ticket := c.Query("ticket"); ticket != "" && h.issuer != nil {
		owner, err := h.issuer.ParseTicket(ticket)
		if err != nil {
			zap.L().Debug("ws票据无效", zap.Error(err))
			return "", false
		}
		// 票据签发后参与者可能已被移出配置
		return owner, h.registry.Has(owner)
	}
	return "", false
}

// HandleFrame 处理一个客户端帧，返回应答帧
// 每个请求帧恰好得到一个 result 或 error 帧，request_id 原样带回
func (h *WsHandler) HandleFrame(ctx context.Context, owner string, data []byte) []byte {
	var head request.WsFrame
	if err := json.Unmarshal(data, &head); err != nil {
		return errorFrame("", "", errorx.ErrBadRequest)
	}
	if err := binding.Validator.ValidateStruct(&head); err != nil {
		return errorFrame(head.RequestId, head.Type, errorx.New(errorx.CodeBadRequest, validationMessage(err)))
	}

	result, err := h.dispatch(ctx, owner, head.Type, data)
	if err != nil {
		return errorFrame(head.RequestId, head.Type, err)
	}
	return encodeWsFrame(respond.WsFrame{
		Type:      respond.FrameResult,
		RequestId: head.RequestId,
		Op:        head.Type,
		Data:      result,
	})
}

func (h *WsHandler) dispatch(ctx context.Context, owner, frameType string, data []byte) (any, error) {
	switch frameType {
	case request.FramePost:
		var req request.PostMessageRequest
		if err := bindFrame(data, &req); err != nil {
			return nil, err
		}
		return h.chatSvc.PostMessage(ctx, owner, req)

	case request.FrameHistory:
		var req request.HistoryRequest
		if err := bindFrame(data, &req); err != nil {
			return nil, err
		}
		return h.chatSvc.GetHistory(ctx, req)

	case request.FrameHeartbeat:
		return h.chatSvc.Heartbeat(ctx, owner)

	case request.FrameStatus:
		return h.chatSvc.GetPresence(ctx)

	case request.FrameGet:
		var req request.GetMessageRequest
		if err := bindFrame(data, &req); err != nil {
			return nil, err
		}
		return h.chatSvc.GetMessage(ctx, req.Id)
	}
	return nil, errorx.ErrBadRequest
}

// bindFrame 帧体与帧头在同一个 JSON 对象里，字段平铺
func bindFrame(data []byte, obj any) error {
	if err := json.Unmarshal(data, obj); err != nil {
		return errorx.ErrBadRequest
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return errorx.New(errorx.CodeInvalidParam, validationMessage(err))
	}
	return nil
}

func errorFrame(requestId, op string, err error) []byte {
	code, msg := describeError(err)
	if code == errorx.CodeServerBusy || code == errorx.CodeDBError {
		zap.L().Error("ws请求处理失败", zap.String("op", op), zap.Error(err))
	}
	return encodeWsFrame(respond.WsFrame{
		Type:      respond.FrameError,
		RequestId: requestId,
		Op:        op,
		Code:      code,
		Msg:       msg,
	})
}

func encodeWsFrame(frame respond.WsFrame) []byte {
	out, err := json.Marshal(frame)
	if err != nil {
		zap.L().Error("应答帧序列化失败", zap.String("op", frame.Op), zap.Error(err))
		return nil
	}
	return out
}
