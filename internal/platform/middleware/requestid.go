// Package middleware holds the HTTP middleware chain: request identity,
// client metadata, and JWT authentication.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"tasjeel/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestID propagates the inbound request id, or mints one, into the request
// context and the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
