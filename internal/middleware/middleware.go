// Package middleware provides the HTTP middleware used by the contact
// relay: CORS gating, per-IP rate limiting, panic recovery, and request
// body limits. All middleware use the standard func(http.Handler)
// http.Handler shape so they compose with chi.
package middleware

import (
	"encoding/json"
	"net/http"
)

// Middleware is the standard net/http middleware shape.
type Middleware func(http.Handler) http.Handler

// writeJSONError emits a minimal {"error": ...} body. Middleware-level
// failures stay terse; handlers own the richer response shapes.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
