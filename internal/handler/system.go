package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/bmdub/contact-relay/internal/mailer"
)

// ServiceName is reported by the liveness endpoint.
const ServiceName = "bmdub-contact-relay"

// Root handles GET / with liveness info.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": ServiceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// VerifyTimeout bounds the backend connectivity probe.
const VerifyTimeout = 10 * time.Second

// Verify returns the GET /debug/verify handler. It probes mail backend
// connectivity (SMTP opens a handshake, Resend checks key presence) and
// reports the backend type and outcome.
func Verify(backend string, verifier mailer.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), VerifyTimeout)
		defer cancel()

		if err := verifier.Verify(ctx); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"ok":      false,
				"backend": backend,
				"error":   err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"backend": backend,
		})
	}
}
