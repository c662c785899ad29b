package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds each request; on expiry the client gets a 503 and the
// handler's context is cancelled.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(
			next,
			timeout,
			`{"success":false,"error":{"code":"TIMEOUT","message":"Request timeout"}}`,
		)
	}
}
