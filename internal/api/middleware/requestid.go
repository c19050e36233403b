// requestid.go — middleware присвоения идентификатора запроса.
// Каждый входящий запрос получает UUID, доступный downstream через контекст
// и возвращаемый клиенту в заголовке X-Request-Id.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyRequestID — идентификатор запроса в контексте.
const ContextKeyRequestID contextKey = "request_id"

// RequestID возвращает middleware, присваивающий каждому запросу UUID.
// Если клиент прислал X-Request-Id — используется его значение.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set("X-Request-Id", id)

			ctx := context.WithValue(r.Context(), ContextKeyRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext возвращает идентификатор запроса из контекста
// (пустая строка, если middleware не применялся).
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyRequestID).(string)
	return id
}
