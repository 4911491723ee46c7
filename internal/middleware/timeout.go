package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout ограничивает время обработки запроса. Просроченный контекст
// отменяет ожидание соединения из пула БД и выполняющиеся запросы, так что
// при исчерпании пула обработчик получает ошибку вместо вечного ожидания.
// Ответ остаётся за обработчиком: middleware сам ничего не пишет, чтобы
// не ломать единый JSON-конверт.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
