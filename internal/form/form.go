// Package form holds the contact form submission type, its normalization
// and validation rules, and HTML stripping for outgoing mail content.
package form

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Submission is a single contact form post. The website field is a honeypot:
// it is hidden from humans, so any non-empty value signals an automated
// submission.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Source  string `json:"source"`
	Website string `json:"website"`
}

// ValidationError carries the human-readable message for the first failing
// rule. It maps to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

const (
	msgName    = "Name is required and must be at least 2 characters."
	msgEmail   = "Invalid email address."
	msgSubject = "Subject is required and must be at least 2 characters."
	msgMessage = "Message is required and must be at least 10 characters."
)

// emailPattern accepts local@domain.tld shaped addresses: a single @,
// a dot in the domain part, no whitespace. Deliberately loose; the mail
// transport is the real arbiter.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Normalize trims every field and defaults Source to "form".
// Missing input is an empty string rather than an error.
func (s *Submission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Subject = strings.TrimSpace(s.Subject)
	s.Message = strings.TrimSpace(s.Message)
	s.Source = strings.TrimSpace(s.Source)
	s.Website = strings.TrimSpace(s.Website)
	if s.Source == "" {
		s.Source = "form"
	}
}

// IsSpam reports whether the honeypot field was filled in. Checked before
// any validation rule.
func (s *Submission) IsSpam() bool {
	return s.Website != ""
}

// Validate applies the field rules in fixed order; the first failure wins.
// The submission must already be normalized. Lengths count characters, not
// bytes, so multibyte names are not over-counted.
func (s *Submission) Validate() error {
	if utf8.RuneCountInString(s.Name) < 2 {
		return &ValidationError{Message: msgName}
	}
	if !emailPattern.MatchString(s.Email) {
		return &ValidationError{Message: msgEmail}
	}
	if utf8.RuneCountInString(s.Subject) < 2 {
		return &ValidationError{Message: msgSubject}
	}
	if utf8.RuneCountInString(s.Message) < 10 {
		return &ValidationError{Message: msgMessage}
	}
	return nil
}

var (
	strictPolicy *bluemonday.Policy
	policyOnce   sync.Once
)

// Strip removes all HTML from a field value, returning plain text.
// Applied when composing outgoing mail, not during validation.
func Strip(s string) string {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy.Sanitize(s)
}
