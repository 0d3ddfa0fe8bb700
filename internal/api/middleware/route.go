package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route groups used to label logs, metrics and spans.
const (
	GroupOps      = "ops"
	GroupEvaluate = "evaluate"
	GroupAdmin    = "admin"
	GroupOther    = "other"
)

// unmatchedRoute labels requests chi routed to no pattern, keeping
// arbitrary paths out of metric attributes.
const unmatchedRoute = "unmatched"

// routeOf returns the chi route pattern that served r. Outside a chi router
// it falls back to the raw path. Call it after the next handler returns;
// chi fills the pattern in while routing.
func routeOf(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// RouteGroup maps a route to the endpoint family it belongs to. Routes seen
// by middleware inside a mounted subrouter may end at the mount point, so
// both "/v1/admin" and "/v1/admin/*" count as admin.
func RouteGroup(route string) string {
	switch {
	case under(route, "/v1/ops"):
		return GroupOps
	case under(route, "/v1/admin"):
		return GroupAdmin
	case strings.HasPrefix(route, "/v1/"):
		return GroupEvaluate
	default:
		return GroupOther
	}
}

func under(route, prefix string) bool {
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

// statusRecorder captures the status code and body size written downstream.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}
