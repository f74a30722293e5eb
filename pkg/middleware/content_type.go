package middleware

import (
	"mime"
	"net/http"

	"megastrength/pkg/logger"
)

// ContentTypeValidation requires a JSON body on writes. Parameters such as charset are allowed.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasJSONBody(r.Method) {
				if mt := mediaType(r.Header.Get("Content-Type")); mt != "application/json" {
					rejectInvalidContentType(w, log, r, mt)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasJSONBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}

func rejectInvalidContentType(w http.ResponseWriter, log *logger.Logger, r *http.Request, contentType string) {
	log.Warn("Invalid Content-Type header",
		"request_id", RequestID(r.Context()),
		"content_type", contentType,
		"path", r.URL.Path,
		"method", r.Method,
	)

	reject(w, http.StatusUnsupportedMediaType, codeUnsupportedMediaType, "Content-Type must be application/json")
}
