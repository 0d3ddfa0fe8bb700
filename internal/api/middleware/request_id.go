// Package middleware provides HTTP middleware for the modechoice API.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// requestInfoKey is the context key for the per request record.
type requestInfoKey struct{}

// requestInfo is shared by every layer of one request. Auth fills in the
// caller so the outer logging, metrics and tracing layers can report it
// after the handler returns.
type requestInfo struct {
	id     string
	client string
	scopes []string
}

// RequestID propagates a caller supplied X-Request-Id or generates one, and
// echoes it in the response header. Supplied IDs that are too long or hold
// anything but visible ASCII are replaced so they cannot forge log lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if !validRequestID(requestID) {
			requestID = "req_" + uuid.New().String()[:22]
		}

		w.Header().Set("X-Request-Id", requestID)

		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{id: requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

// caller returns the authenticated client and scopes recorded for the
// request, falling back to claims placed directly on the context.
func caller(ctx context.Context) (string, []string) {
	if info := infoFrom(ctx); info != nil && info.client != "" {
		return info.client, info.scopes
	}
	if c := GetClaims(ctx); c != nil {
		return c.Client, c.Scopes
	}
	return "", nil
}
