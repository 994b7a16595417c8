// Package auth 提供参与者认证
// Registry 在启动时由配置构建，此后只读，可被任意 goroutine 并发查询
package auth

import (
	"fmt"
	"strings"

	"chat_core_server/internal/config"
)

// Registry token -> 参与者名称 的只读映射
type Registry struct {
	byToken map[string]string
	names   []string
}

// NewRegistry 从配置构建 Registry
// 列表为空、名称或 token 为空、token 重复、名称重复都视为配置错误
func NewRegistry(entries []config.Participant) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("participant list is empty")
	}
	r := &Registry{
		byToken: make(map[string]string, len(entries)),
		names:   make([]string, 0, len(entries)),
	}
	seenNames := make(map[string]struct{}, len(entries))
	for i, p := range entries {
		if p.Name == "" || p.Token == "" {
			return nil, fmt.Errorf("participant #%d: name and token are required", i)
		}
		if _, dup := r.byToken[p.Token]; dup {
			return nil, fmt.Errorf("participant %q: token already assigned to %q", p.Name, r.byToken[p.Token])
		}
		if _, dup := seenNames[p.Name]; dup {
			return nil, fmt.Errorf("participant %q: duplicate name", p.Name)
		}
		r.byToken[p.Token] = p.Name
		seenNames[p.Name] = struct{}{}
		r.names = append(r.names, p.Name)
	}
	return r, nil
}

// Resolve token -> 名称，未知 token 返回 ok=false
func (r *Registry) Resolve(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	name, ok := r.byToken[token]
	return name, ok
}

// Has 名称是否为已注册参与者
func (r *Registry) Has(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// Names 按配置顺序返回全部参与者名称（副本）
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// BearerToken 从 Authorization 头中取出 Bearer token
// 格式：Bearer <token>，前缀大小写不敏感
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
