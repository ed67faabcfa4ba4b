// Package smtpmail delivers mail through an SMTP relay using gomail.
//
// The connection is dialed lazily and kept open across requests; a failed
// send drops the connection so the next request redials.
package smtpmail

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/bmdub/contact-relay/internal/mailer"
)

// Config holds the SMTP backend configuration.
type Config struct {
	Host string
	Port int
	User string
	Pass string
	// Timeout bounds dials, verify handshakes, and each send. gomail itself
	// exposes no deadline, so both run under a context watchdog.
	Timeout time.Duration
}

// Sender implements mailer.Sender over a pooled SMTP connection.
type Sender struct {
	dialer *gomail.Dialer
	config Config

	mu   sync.Mutex
	conn gomail.SendCloser
}

// New creates a new SMTP sender. TLS is implicit on port 465; other ports
// upgrade opportunistically via STARTTLS (gomail's default).
func New(cfg Config) *Sender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)
	d.SSL = cfg.Port == 465
	return &Sender{dialer: d, config: cfg}
}

// Send implements mailer.Sender. Sends are serialized on the shared
// connection; per-address counters upstream keep volume low enough that a
// single connection suffices.
func (s *Sender) Send(ctx context.Context, msg *mailer.Message) error {
	m := buildMessage(msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		conn, err := s.dial(ctx)
		if err != nil {
			return fmt.Errorf("smtp: connect: %w", err)
		}
		s.conn = conn
	}

	if err := s.send(ctx, m); err != nil {
		// Drop the connection; the next request redials.
		_ = s.conn.Close()
		s.conn = nil
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

// send runs the blocking gomail send under the configured timeout. On
// expiry the connection is closed, which unblocks the in-flight transaction;
// a relay that stalls mid-transaction must not wedge the submission
// endpoint. Callers hold s.mu.
func (s *Sender) send(ctx context.Context, m *gomail.Message) error {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	conn := s.conn
	ch := make(chan error, 1)
	go func() {
		ch <- gomail.Send(conn, m)
	}()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// Verify implements mailer.Verifier by opening and closing a connection
// within the configured timeout.
func (s *Sender) Verify(ctx context.Context) error {
	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp: verify: %w", err)
	}
	return conn.Close()
}

// Close releases the pooled connection, if any.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// dial runs the blocking gomail dial under the configured timeout. On
// timeout the late connection, if any, is closed by the watchdog goroutine.
func (s *Sender) dial(ctx context.Context) (gomail.SendCloser, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	type result struct {
		conn gomail.SendCloser
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := s.dialer.Dial()
		select {
		case ch <- result{conn: conn, err: err}:
		case <-ctx.Done():
			if conn != nil {
				_ = conn.Close()
			}
		}
	}()

	select {
	case res := <-ch:
		return res.conn, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func buildMessage(msg *mailer.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Reply-To", msg.ReplyTo)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	return m
}
