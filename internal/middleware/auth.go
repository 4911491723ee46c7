// Package middleware содержит HTTP middleware сервиса PawConnect.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mmeshcher/pawconnect-system/internal/token"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity содержит данные аутентифицированного пользователя из токена доступа.
type Identity struct {
	UserID    int64
	Email     string
	IsPremium bool
}

// AuthMiddleware выполняет проверку аутентификации по токену в заголовке Authorization.
type AuthMiddleware struct {
	tokens *token.Manager
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware с указанным менеджером токенов.
func NewAuthMiddleware(tokens *token.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

// Authenticate проверяет токен доступа и добавляет данные пользователя в контекст запроса.
// Истёкший токен даёт отдельное сообщение, чтобы клиент мог повторить вход.
func (a *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			unauthorized(w, "Access denied. No token provided.")
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			if errors.Is(err, token.ErrTokenExpired) {
				unauthorized(w, "Token has expired. Please login again.")
				return
			}
			unauthorized(w, "Invalid token.")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, Identity{
			UserID:    claims.UserID,
			Email:     claims.Email,
			IsPremium: claims.IsPremium,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePremium пропускает только пользователей с премиум-статусом в токене.
// Должен стоять после Authenticate.
func (a *AuthMiddleware) RequirePremium(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			unauthorized(w, "Access denied. No token provided.")
			return
		}

		if !identity.IsPremium {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"message": "This feature requires a premium membership.",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Optional добавляет данные пользователя в контекст, если токен передан и корректен.
// При отсутствующем или некорректном токене запрос продолжается анонимно.
func (a *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw != "" {
			if claims, err := a.tokens.Parse(raw); err == nil {
				ctx := context.WithValue(r.Context(), identityKey, Identity{
					UserID:    claims.UserID,
					Email:     claims.Email,
					IsPremium: claims.IsPremium,
				})
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// IdentityFromContext извлекает данные пользователя из контекста запроса.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
