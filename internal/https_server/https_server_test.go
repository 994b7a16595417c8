package https_server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chat_core_server/internal/config"
	"chat_core_server/internal/dao/gormdb"
	"chat_core_server/internal/dto/respond"
	"chat_core_server/internal/handler"
	"chat_core_server/internal/https_server"
	"chat_core_server/internal/infrastructure/mq"
	"chat_core_server/internal/service"
	"chat_core_server/internal/service/auth"
	"chat_core_server/internal/service/chat"
	"chat_core_server/internal/service/chatroom"
	"chat_core_server/internal/service/presence"
	"chat_core_server/pkg/constants"
	"chat_core_server/pkg/errorx"
	"chat_core_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := handler.InitTrans("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  any             `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	*httptest.Server
	hub    *chat.Hub
	issuer *jwt.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry, err := auth.NewRegistry([]config.Participant{
		{Name: "Alice", Token: "T1"},
		{Name: "Bob", Token: "T2"},
	})
	require.NoError(t, err)

	repos, err := gormdb.Init(config.DBConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "chat.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tracker := presence.NewTracker(registry.Names(), 5*time.Minute)
	history := chatroom.NewHistoryReader(repos.Message, nil, 100)
	hub := chat.NewHub(tracker,
		chat.WithPingInterval(time.Hour),
		chat.WithStatusInterval(time.Hour),
		chat.WithWelcome(history, 100),
	)
	go hub.Run(ctx)

	svc := chatroom.NewChatService(chatroom.Deps{
		Repo:     repos.Message,
		History:  history,
		Presence: tracker,
		Hub:      hub,
		Exporter: mq.NoopExporter{},
	})
	t.Cleanup(svc.Close)

	issuer := jwt.NewIssuer("test-secret", time.Minute)
	engine := https_server.Init(handler.NewHandlers(service.NewServices(svc), hub, registry, issuer), config.MainConfig{Mode: "test"})
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return &testServer{Server: server, hub: hub, issuer: issuer}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(raw, &env), "body=%q", string(raw))
	return resp.StatusCode, env
}

func (s *testServer) dial(t *testing.T, query string, header http.Header) *websocket.Conn {
	t.Helper()
	before := s.hub.Count()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/ws"+query, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, func() bool { return s.hub.Count() == before+1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

type wsFrame struct {
	Type      string          `json:"type"`
	RequestId string          `json:"request_id"`
	Op        string          `json:"op"`
	Code      int             `json:"code"`
	Msg       string          `json:"msg"`
	Data      json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil 跳过其它类型的帧
func readUntil(t *testing.T, conn *websocket.Conn, frameType string) wsFrame {
	t.Helper()
	for {
		if f := readFrame(t, conn); f.Type == frameType {
			return f
		}
	}
}

func TestPostMessage_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/messages", map[string]any{"content": "hi"}, "")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, errorx.CodeUnauthorized, env.Code)

	status, _ = s.do(t, http.MethodPost, "/messages", map[string]any{"content": "hi"}, "wrong")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestPostAndReadHistory(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/messages", map[string]any{"content": "hello"}, "T1")
	require.Equal(t, http.StatusOK, status)
	var first respond.MessageRespond
	require.NoError(t, json.Unmarshal(env.Data, &first))
	require.Equal(t, int64(1), first.Id)
	require.Equal(t, "Alice", first.Sender)

	status, env = s.do(t, http.MethodPost, "/messages", map[string]any{"content": "hi", "reply_to": 1}, "T2")
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/messages?after_id=0", nil, "")
	require.Equal(t, http.StatusOK, status)
	var msgs []respond.MessageRespond
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 2)
	require.Equal(t, "Bob", msgs[1].Sender)
	require.Equal(t, int64(1), *msgs[1].ReplyTo)

	status, env = s.do(t, http.MethodGet, "/messages/2", nil, "")
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/messages/99", nil, "")
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, errorx.CodeNotFound, env.Code)
}

func TestPostMessage_Validation(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/messages", map[string]any{"content": "   "}, "T1")
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, errorx.CodeInvalidParam, env.Code)

	status, _ = s.do(t, http.MethodPost, "/messages", map[string]any{"content": "x", "reply_to": 7}, "T1")
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodGet, "/messages?after_id=1&before_id=3", nil, "")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHeartbeatAndStatus(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/heartbeat", nil, "T2")
	require.Equal(t, http.StatusOK, status)

	status, env := s.do(t, http.MethodGet, "/status", nil, "")
	require.Equal(t, http.StatusOK, status)
	var snapshot []respond.ParticipantStatus
	require.NoError(t, json.Unmarshal(env.Data, &snapshot))
	require.Len(t, snapshot, 2)
	require.Equal(t, "Alice", snapshot[0].Name)
	require.False(t, snapshot[0].Online)
	require.Equal(t, "Bob", snapshot[1].Name)
	require.True(t, snapshot[1].Online)
}

func TestWebSocket_WelcomeThenBroadcast(t *testing.T) {
	s := newTestServer(t)

	_, _ = s.do(t, http.MethodPost, "/messages", map[string]any{"content": "before"}, "T1")

	header := http.Header{}
	header.Set("Authorization", "Bearer T2")
	conn := s.dial(t, "", header)

	require.Equal(t, respond.FrameStatus, readFrame(t, conn).Type)
	welcome := readFrame(t, conn)
	require.Equal(t, respond.FrameHistory, welcome.Type)
	var recent []respond.MessageRespond
	require.NoError(t, json.Unmarshal(welcome.Data, &recent))
	require.Len(t, recent, 1)
	require.Equal(t, "before", recent[0].Content)

	_, _ = s.do(t, http.MethodPost, "/messages", map[string]any{"content": "after"}, "T1")

	pushed := readFrame(t, conn)
	require.Equal(t, respond.FrameMessage, pushed.Type)
	var msg respond.MessageRespond
	require.NoError(t, json.Unmarshal(pushed.Data, &msg))
	require.Equal(t, int64(2), msg.Id)
	require.Equal(t, "after", msg.Content)

	require.Equal(t, respond.FrameStatus, readFrame(t, conn).Type)
}

func TestWebSocket_RequestFrames(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "?token=T1", nil)
	readUntil(t, conn, respond.FrameHistory)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "post", "request_id": "r1", "content": "via ws"}))
	result := readUntil(t, conn, respond.FrameResult)
	require.Equal(t, "r1", result.RequestId)
	require.Equal(t, "post", result.Op)
	var msg respond.MessageRespond
	require.NoError(t, json.Unmarshal(result.Data, &msg))
	require.Equal(t, "Alice", msg.Sender)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "get", "request_id": "r2", "id": 42}))
	failed := readUntil(t, conn, respond.FrameError)
	require.Equal(t, "r2", failed.RequestId)
	require.Equal(t, errorx.CodeNotFound, failed.Code)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "shout", "request_id": "r3"}))
	failed = readUntil(t, conn, respond.FrameError)
	require.Equal(t, "r3", failed.RequestId)
	require.Equal(t, errorx.CodeBadRequest, failed.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	failed = readUntil(t, conn, respond.FrameError)
	require.Equal(t, errorx.CodeBadRequest, failed.Code)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "history", "request_id": "r4", "after_id": 0}))
	result = readUntil(t, conn, respond.FrameResult)
	require.Equal(t, "r4", result.RequestId)
	var msgs []respond.MessageRespond
	require.NoError(t, json.Unmarshal(result.Data, &msgs))
	require.Len(t, msgs, 1)
}

func TestWebSocket_TicketHandshake(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodPost, "/auth/ticket", nil, "T1")
	require.Equal(t, http.StatusOK, status)
	var ticket respond.TicketRespond
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	require.NotEmpty(t, ticket.Ticket)

	conn := s.dial(t, "?ticket="+ticket.Ticket, nil)
	require.Equal(t, respond.FrameStatus, readFrame(t, conn).Type)
}

func TestWebSocket_RejectsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws"

	for _, query := range []string{"", "?token=nope", "?ticket=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url+query, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	}
	require.Zero(t, s.hub.Count())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.Client().Get(s.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = s.Client().Get(s.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Contains(t, string(body), "chat_http_requests_total")
}

func TestWebSocket_MaxLengthEscapedPost(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "?token=T1", nil)
	readUntil(t, conn, respond.FrameHistory)

	cases := map[string]struct{ escaped, raw string }{
		"cjk":           {escaped: `\u4e2d`, raw: "中"},
		"surrogate pair": {escaped: `\ud83d\ude00`, raw: "😀"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			// 每个字符都以 \uXXXX 转义发送，帧远大于原始 UTF-8 长度
			frame := `{"type":"post","request_id":"` + name + `","content":"` +
				strings.Repeat(tc.escaped, constants.MAX_CONTENT_LENGTH) + `"}`
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))

			result := readUntil(t, conn, respond.FrameResult)
			require.Equal(t, name, result.RequestId)
			var msg respond.MessageRespond
			require.NoError(t, json.Unmarshal(result.Data, &msg))
			require.Equal(t, strings.Repeat(tc.raw, constants.MAX_CONTENT_LENGTH), msg.Content)
		})
	}
	require.Equal(t, 1, s.hub.Count())
}

func TestWebSocket_SilentClientEvicted(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "?token=T1", nil)

	// 客户端不读取，ping 得不到 pong
	s.hub.Sweep()
	require.Equal(t, 1, s.hub.Count())
	s.hub.Sweep()
	require.Zero(t, s.hub.Count())

	// 连接随后被服务端关闭，而不是等到读超时
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var err error
	for err == nil {
		_, _, err = conn.ReadMessage()
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		require.False(t, netErr.Timeout(), "session was not closed: %v", err)
	}
}

func TestWebSocket_RespondingClientSurvivesSweeps(t *testing.T) {
	s := newTestServer(t)
	conn := s.dial(t, "?token=T1", nil)

	pinged := make(chan struct{}, 1)
	conn.SetPingHandler(func(data string) error {
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
		pinged <- struct{}{}
		return err
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for i := 0; i < 3; i++ {
		s.hub.Sweep()
		select {
		case <-pinged:
		case <-time.After(2 * time.Second):
			t.Fatal("client never received a ping")
		}
		// 回环连接上 pong 到达服务端读协程只需微秒级
		time.Sleep(100 * time.Millisecond)
	}
	s.hub.Sweep()
	require.Equal(t, 1, s.hub.Count())
}
