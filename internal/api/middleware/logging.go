package middleware

import (
	"net/http"
	"time"

	"github.com/mlenart/diary-insights/internal/logging"
)

// RequestLogger logs one line per request with method, path, status
// and latency.
func RequestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(lw, r)

			log.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, lw.statusCode, time.Since(start))
		})
	}
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lw *statusResponseWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}
