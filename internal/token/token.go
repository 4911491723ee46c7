// Package token реализует выпуск и проверку подписанных токенов доступа.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired возвращается для токена с истёкшим сроком действия.
var (
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid возвращается для отсутствующего или некорректного токена.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims содержит утверждения токена доступа. Признак премиума фиксируется
// на момент выпуска токена: повышение до премиума в середине сессии не
// меняет уже выданный клиенту токен.
type Claims struct {
	UserID    int64  `json:"uid"`
	Email     string `json:"email"`
	IsPremium bool   `json:"isPremium"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены доступа с подписью HS256.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager создаёт менеджер токенов с указанным секретом и сроком действия.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue выпускает токен доступа с встроенными утверждениями пользователя.
func (m *Manager) Issue(userID int64, email string, isPremium bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		IsPremium: isPremium,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse проверяет подпись и срок действия токена и возвращает его утверждения.
// Истёкший токен даёт ErrTokenExpired, любой другой дефект — ErrTokenInvalid.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
