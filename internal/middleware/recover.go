package middleware

import (
	"log/slog"
	"net/http"
	"runtime"
)

// recoverStackSize caps the stack trace captured on panic.
const recoverStackSize = 4096

// Recover returns middleware that converts panics into a generic 500
// response. The panic value and stack are logged server-side only.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := make([]byte, recoverStackSize)
					n := runtime.Stack(stack, false)

					log.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(stack[:n])),
					)

					writeJSONError(w, http.StatusInternalServerError, "Internal server error.")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps the request body size. Oversized bodies surface as decode
// errors in the handler, which reports a 400.
func BodyLimit(limitBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limitBytes)
			next.ServeHTTP(w, r)
		})
	}
}
