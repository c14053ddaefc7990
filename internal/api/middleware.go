package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobmate/alerts-service/internal/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument records request counts and latency per route and logs failures.
func Instrument(next http.Handler, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := routeLabel(r.URL.Path)
		metrics.HttpRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(sw.status), r.Method).Inc()
		metrics.HttpRequestDuration.WithLabelValues(endpoint, r.Method).Observe(time.Since(start).Seconds())
		if sw.status >= 500 {
			log.Warn("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Int("status", sw.status))
		}
	})
}

// knownRoutes are the only endpoint label values; anything else is "other".
var knownRoutes = map[string]bool{
	"/alerts":             true,
	"/alerts/{id}":        true,
	"/alerts/{id}/toggle": true,
	"/notifications":      true,
	"/match":              true,
	"/jobs/changed":       true,
	"/push/permission":    true,
	"/toasts":             true,
	"/toasts/{id}":        true,
	"/health":             true,
	"/metrics":            true,
}

// routeLabel collapses resource ids so metric labels stay bounded.
func routeLabel(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && (parts[0] == "alerts" || parts[0] == "toasts") {
		parts[1] = "{id}"
	}
	label := "/" + strings.Join(parts, "/")
	if !knownRoutes[label] {
		return "other"
	}
	return label
}
