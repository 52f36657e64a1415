package middleware

import (
	"net/http"
	"time"

	"speedguard/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// LoggingMiddleware logs every request with its status and duration.
// Websocket handshakes are passed through untouched so the connection can be hijacked.
func LoggingMiddleware(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isWebsocket(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start).Round(time.Millisecond)
			switch {
			case rec.status >= 500:
				logger.Error("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			case rec.status >= 400:
				logger.Warning("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			default:
				logger.Info("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			}
		})
	}
}
