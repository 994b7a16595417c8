// Package jwt 签发和校验 WebSocket 握手 ticket
// 浏览器无法在 WebSocket 握手中设置 Authorization 头，先用 bearer token 换取短期 ticket，再放在 ?ticket= 中
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer        = "chat_core"
	ticketSubject = "ws_ticket"
)

// ErrWrongSubject token 合法但不是 ticket
var ErrWrongSubject = errors.New("token is not a ws ticket")

// Claims ticket 声明
type Claims struct {
	Participant string `json:"participant"`
	jwt.RegisteredClaims
}

// Issuer 持有签名密钥与有效期
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer 创建 ticket 签发器
func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// GenerateTicket 为参与者签发 ticket，返回 ticket 与过期时间
func (i *Issuer) GenerateTicket(participant string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.expiry)
	claims := Claims{
		Participant: participant,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   ticketSubject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseTicket 校验签名、过期时间与用途，返回参与者名称
func (i *Issuer) ParseTicket(ticket string) (string, error) {
	token, err := jwt.ParseWithClaims(ticket, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", jwt.ErrSignatureInvalid
	}
	if claims.Subject != ticketSubject {
		return "", ErrWrongSubject
	}
	return claims.Participant, nil
}
