package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/artgallery/gallery-api/internal/pkg/logger"
)

// RequestID adds a unique request ID to each request and tags the
// request-scoped logger with it
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
