// Package resendmail delivers mail through the Resend HTTP API.
package resendmail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/resend/resend-go/v3"

	"github.com/bmdub/contact-relay/internal/mailer"
)

// Config holds the Resend backend configuration.
type Config struct {
	APIKey string
	// Timeout bounds each API call. The underlying HTTP client has no
	// timeout of its own, so zero means unbounded.
	Timeout time.Duration
}

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
	config Config
}

// New creates a new Resend sender.
func New(cfg Config) *Sender {
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
	}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	// The API expects a bare reply-to address, not the display form.
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		ReplyTo: mailer.Address(msg.ReplyTo),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

// Verify implements mailer.Verifier. A configured API key is treated as
// sufficient; there is no handshake to probe without sending mail.
func (s *Sender) Verify(ctx context.Context) error {
	if s.config.APIKey == "" {
		return errors.New("resend: API key is not configured")
	}
	return nil
}
