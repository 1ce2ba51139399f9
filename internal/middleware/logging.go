package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseMeter wraps http.ResponseWriter to record the status code and
// the number of body bytes written.
type responseMeter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (m *responseMeter) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(b []byte) (int, error) {
	n, err := m.ResponseWriter.Write(b)
	m.bytes += n
	return n, err
}

// RequestLogger returns middleware that logs each request once it
// completes: method, path, status, response size, duration and client IP.
// Server errors log at error level, client errors at warn.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			meter := &responseMeter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(meter, r)

			level := slog.LevelInfo
			switch {
			case meter.status >= 500:
				level = slog.LevelError
			case meter.status >= 400:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", meter.status,
				"bytes", meter.bytes,
				"duration", time.Since(start),
				"ip", RealIP(r),
			)
		})
	}
}
