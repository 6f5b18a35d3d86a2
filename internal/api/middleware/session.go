package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const (
	SessionHeader = "X-Session-ID"

	SessionIDCtxKey contextKey = "sessionID"
)

const maxSessionIDLen = 128

// Session attaches the caller's session ID to the request context. A missing
// or oversized header gets a fresh ID, echoed back in the response header.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(SessionHeader))
		if id == "" || len(id) > maxSessionIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)
		ctx := context.WithValue(r.Context(), SessionIDCtxKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to get the session ID from context
func GetSessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SessionIDCtxKey).(string)
	return id, ok
}
