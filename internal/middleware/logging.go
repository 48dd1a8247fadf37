package middleware

import (
	"bufio"
	"net"
	"net/http"
	"time"

	"ambulancewatch/internal/logger"

	"github.com/pkg/errors"
)

// statusRecorder remembers the status code while staying usable for
// streaming (Flusher) and websocket upgrades (Hijacker).
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return h.Hijack()
}

// LoggingMiddleware writes one line per request with method, path, status and latency.
func LoggingMiddleware(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			switch {
			case status >= 500:
				logger.Error("%s %s -> %d (%s)", r.Method, r.URL.Path, status, time.Since(start))
			case status >= 400:
				logger.Warning("%s %s -> %d (%s)", r.Method, r.URL.Path, status, time.Since(start))
			default:
				logger.Info("%s %s -> %d (%s)", r.Method, r.URL.Path, status, time.Since(start))
			}
		})
	}
}
