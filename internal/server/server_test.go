package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmdub/contact-relay/internal/config"
	"github.com/bmdub/contact-relay/internal/logger"
	"github.com/bmdub/contact-relay/internal/mailer"
	"github.com/bmdub/contact-relay/internal/server"
)

// stubBackend counts sends and succeeds unless failWith is set.
type stubBackend struct {
	sends    atomic.Int64
	failWith error
}

func (s *stubBackend) Send(ctx context.Context, msg *mailer.Message) error {
	s.sends.Add(1)
	return s.failWith
}

func (s *stubBackend) Verify(ctx context.Context) error { return nil }

func testRouter(t *testing.T, backend server.MailBackend) http.Handler {
	t.Helper()
	cfg := config.Config{
		ResendAPIKey: "re_test_key",
		ToEmail:      "hello@bmdub.dev",
		FromEmail:    "bmDub Contact <noreply@bmdub.dev>",
		CORSOrigins:  []string{"https://bmdub.dev"},
	}
	return server.NewRouter(cfg, backend, logger.NewNope())
}

const validBody = `{"name":"Jane Doe","email":"jane@example.com","subject":"Hello","message":"This is a test message."}`

func post(h http.Handler, addr, origin, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = addr
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_CORSRejectionPrecedesValidation(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	h := testRouter(t, backend)

	// Payload is invalid too; the origin check must win.
	rec := post(h, "203.0.113.7:1234", "https://evil.example", `{"name":""}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NotContains(t, rec.Body.String(), "Name is required")
	require.Equal(t, int64(0), backend.sends.Load())
}

func TestRouter_AllowedOriginProceeds(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	h := testRouter(t, backend)

	rec := post(h, "203.0.113.7:1234", "https://bmdub.dev", validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(1), backend.sends.Load())
}

func TestRouter_RateLimitOnSubmissionOnly(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	h := testRouter(t, backend)

	addr := "203.0.113.50:1234"
	for i := range 5 {
		rec := post(h, addr, "", validBody)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := post(h, addr, "", validBody)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, int64(5), backend.sends.Load())

	// Health and liveness endpoints are never rate limited.
	for range 10 {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = addr
		hr := httptest.NewRecorder()
		h.ServeHTTP(hr, req)
		require.Equal(t, http.StatusOK, hr.Code)
	}
}

func TestRouter_OversizedBodyRejected(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	h := testRouter(t, backend)

	huge := `{"name":"Jane Doe","email":"jane@example.com","subject":"Hello","message":"` +
		strings.Repeat("x", 120<<10) + `"}`
	rec := post(h, "203.0.113.60:1234", "", huge)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, int64(0), backend.sends.Load())
}

func TestRouter_SystemEndpoints(t *testing.T) {
	t.Parallel()

	h := testRouter(t, &stubBackend{})

	for _, path := range []string{"/", "/health", "/debug/verify"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Contains(t, rec.Body.String(), `"ok":true`, path)
	}
}
