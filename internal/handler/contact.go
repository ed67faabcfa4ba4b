package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/bmdub/contact-relay/internal/form"
	"github.com/bmdub/contact-relay/internal/mailer"
)

// subjectPrefix is prepended to every relayed subject line.
const subjectPrefix = "[bmDub Contact]"

// ContactConfig carries the per-deployment knobs the contact handler needs.
type ContactConfig struct {
	From string // sender, display form allowed
	To   string // fixed recipient

	// ExposeDeliveryErrors echoes transport error detail in the 500 body.
	// When false, the caller gets a generic message and detail is only
	// logged.
	ExposeDeliveryErrors bool
}

// Contact handles POST /contact: decode, honeypot check, validate, dispatch.
type Contact struct {
	sender mailer.Sender
	config ContactConfig
	log    *slog.Logger
}

// NewContact creates the contact submission handler.
func NewContact(sender mailer.Sender, cfg ContactConfig, log *slog.Logger) *Contact {
	return &Contact{sender: sender, config: cfg, log: log}
}

func (h *Contact) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var sub form.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	sub.Normalize()

	// Honeypot: pretend success so bots learn nothing, send nothing.
	if sub.IsSpam() {
		h.log.InfoContext(r.Context(), "honeypot tripped, suppressing submission",
			slog.String("source", sub.Source))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skip": true})
		return
	}

	if err := sub.Validate(); err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Message)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref := uuid.NewString()
	msg := &mailer.Message{
		From:    h.config.From,
		To:      h.config.To,
		ReplyTo: mailer.Recipient(sub.Name, sub.Email),
		Subject: fmt.Sprintf("%s %s", subjectPrefix, form.Strip(sub.Subject)),
		Text:    composeBody(sub, ref),
	}

	if err := h.sender.Send(r.Context(), msg); err != nil {
		h.log.ErrorContext(r.Context(), "mail dispatch failed",
			slog.String("ref", ref),
			slog.String("error", err.Error()))

		if h.config.ExposeDeliveryErrors {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to send email.")
		return
	}

	h.log.InfoContext(r.Context(), "contact submission relayed",
		slog.String("ref", ref),
		slog.String("source", sub.Source))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "Email sent successfully."})
}

// composeBody renders the plain-text mail body. Free-text fields are
// stripped of HTML; the reference ID ties the mail to server logs.
func composeBody(sub form.Submission, ref string) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nSource: %s\n\nMessage:\n%s\n\nReference: %s\n",
		form.Strip(sub.Name),
		sub.Email,
		form.Strip(sub.Source),
		form.Strip(sub.Message),
		ref,
	)
}
