package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bmdub/contact-relay/internal/handler"
	"github.com/bmdub/contact-relay/internal/logger"
	"github.com/bmdub/contact-relay/internal/mailer"
)

// MockSender is a mock implementation of mailer.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func testConfig() handler.ContactConfig {
	return handler.ContactConfig{
		From: "bmDub Contact <noreply@bmdub.dev>",
		To:   "hello@bmdub.dev",
	}
}

func postContact(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"name":"Jane Doe","email":"jane@example.com","subject":"Hello","message":"This is a test message."}`

func TestContact_ValidSubmission(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *mailer.Message) bool {
		return msg.From == "bmDub Contact <noreply@bmdub.dev>" &&
			msg.To == "hello@bmdub.dev" &&
			msg.ReplyTo == "Jane Doe <jane@example.com>" &&
			msg.Subject == "[bmDub Contact] Hello" &&
			strings.Contains(msg.Text, "This is a test message.")
	})).Return(nil).Once()

	h := handler.NewContact(sender, testConfig(), logger.NewNope())
	rec := postContact(t, h, validBody)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok":true`)
	require.Contains(t, rec.Body.String(), "Email sent successfully.")
	sender.AssertExpectations(t)
}

func TestContact_HoneypotSkipsEverything(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	h := handler.NewContact(sender, testConfig(), logger.NewNope())

	// Other fields are invalid on purpose: the honeypot wins regardless.
	rec := postContact(t, h, `{"name":"","email":"nope","message":"x","website":"http://spam.example"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"skip":true`)
	sender.AssertNotCalled(t, "Send")
}

func TestContact_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			"short name",
			`{"name":"J","email":"jane@example.com","subject":"Hello","message":"This is a test message."}`,
			"Name is required and must be at least 2 characters.",
		},
		{
			"bad email",
			`{"name":"Jane Doe","email":"not-an-email","subject":"Hello","message":"This is a test message."}`,
			"Invalid email address.",
		},
		{
			"short subject",
			`{"name":"Jane Doe","email":"jane@example.com","subject":"H","message":"This is a test message."}`,
			"Subject is required and must be at least 2 characters.",
		},
		{
			"short message",
			`{"name":"Jane Doe","email":"jane@example.com","subject":"Hello","message":"short"}`,
			"Message is required and must be at least 10 characters.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sender := &MockSender{}
			h := handler.NewContact(sender, testConfig(), logger.NewNope())
			rec := postContact(t, h, tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Contains(t, rec.Body.String(), tt.wantMsg)
			sender.AssertNotCalled(t, "Send")
		})
	}
}

func TestContact_MalformedJSON(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	h := handler.NewContact(sender, testConfig(), logger.NewNope())
	rec := postContact(t, h, `{"name":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid request body.")
	sender.AssertNotCalled(t, "Send")
}

func TestContact_DeliveryFailureIsGenericByDefault(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything).
		Return(errors.New("smtp: send: 550 mailbox unavailable")).Once()

	h := handler.NewContact(sender, testConfig(), logger.NewNope())
	rec := postContact(t, h, validBody)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Failed to send email.")
	require.NotContains(t, rec.Body.String(), "550", "transport detail must not leak")
}

func TestContact_DeliveryFailureEchoedWhenConfigured(t *testing.T) {
	t.Parallel()

	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything).
		Return(errors.New("smtp: send: 550 mailbox unavailable")).Once()

	cfg := testConfig()
	cfg.ExposeDeliveryErrors = true
	h := handler.NewContact(sender, cfg, logger.NewNope())
	rec := postContact(t, h, validBody)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "550 mailbox unavailable")
}
