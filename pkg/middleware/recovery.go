package middleware

import (
	"net/http"
	"runtime/debug"

	"megastrength/pkg/logger"
)

// Recovery turns a handler panic into a logged 500. http.ErrAbortHandler is passed through.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}

					log.Error("Panic recovered",
						"request_id", RequestID(r.Context()),
						"panic", p,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					reject(w, http.StatusInternalServerError, codeInternal, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
