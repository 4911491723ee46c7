package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeout(t *testing.T) {
	t.Run("attaches deadline to request context", func(t *testing.T) {
		var hasDeadline bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, hasDeadline = r.Context().Deadline()
			w.WriteHeader(http.StatusOK)
		})

		r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		w := httptest.NewRecorder()

		Timeout(time.Minute)(next).ServeHTTP(w, r)

		if !hasDeadline {
			t.Fatalf("request context has no deadline")
		}
	})

	t.Run("expired context surfaces to the handler", func(t *testing.T) {
		var ctxErr error
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
			ctxErr = r.Context().Err()
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		r := httptest.NewRequest(http.MethodGet, "/api/bookings", nil)
		w := httptest.NewRecorder()

		Timeout(time.Millisecond)(next).ServeHTTP(w, r)

		if ctxErr != context.DeadlineExceeded {
			t.Fatalf("context error = %v, want deadline exceeded", ctxErr)
		}
		// Ответ пишет обработчик, middleware не добавляет своего.
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}
