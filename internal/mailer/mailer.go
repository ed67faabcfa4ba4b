// Package mailer defines the mail delivery contract shared by the SMTP and
// Resend backends. Exactly one backend is selected at startup; both deliver
// a single plain-text message synchronously and never retry.
package mailer

import (
	"context"
	"fmt"
	"net/mail"
)

// Message is a fully-prepared outgoing email.
type Message struct {
	From    string // sender, may be "Display Name <addr>" form
	To      string // fixed recipient address
	ReplyTo string // visitor address, "Name <email>" form
	Subject string
	Text    string // plain-text body
}

// Sender is the minimal interface mail backends implement.
type Sender interface {
	// Send delivers the message. Returns an error if delivery fails;
	// the caller surfaces it as a 500-class response.
	Send(ctx context.Context, msg *Message) error
}

// Verifier reports whether the backend is reachable/configured.
// Used by the /debug/verify endpoint.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Address extracts the bare address from a possibly display-formatted
// value ("Display Name <addr>" -> "addr"). Unparseable input is returned
// unchanged so the transport can produce its own error.
func Address(s string) string {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return s
	}
	return addr.Address
}
