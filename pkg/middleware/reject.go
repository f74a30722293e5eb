package middleware

import (
	"net/http"

	httputil "megastrength/pkg/http"
)

const (
	codeTimeout              = "TIMEOUT"
	codeRateLimited          = "RATE_LIMITED"
	codePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	codeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	codeInternal             = "INTERNAL_ERROR"
)

// reject answers with the same error envelope the handlers use.
func reject(w http.ResponseWriter, status int, code, message string) {
	_ = httputil.WriteJSON(w, status, httputil.ErrorResponse{Error: message, Code: code})
}
