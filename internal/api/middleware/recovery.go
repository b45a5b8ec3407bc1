package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/mlenart/diary-insights/internal/logging"
	"github.com/mlenart/diary-insights/pkg/problem"
)

// Recovery recovers from panics and returns a 500 error
func Recovery(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Errorf("panic recovered: %v\n%s", err, debug.Stack())
					problem.InternalError("An unexpected error occurred").Write(w)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
