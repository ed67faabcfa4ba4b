package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bmdub/contact-relay/internal/config"
	"github.com/bmdub/contact-relay/internal/logger"
	"github.com/bmdub/contact-relay/internal/mailer/resendmail"
	"github.com/bmdub/contact-relay/internal/mailer/smtpmail"
	"github.com/bmdub/contact-relay/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Sentry, server.RequestIDLogExtractor())

	var backend server.MailBackend
	var shutdownHooks []func(context.Context) error

	switch cfg.Backend() {
	case config.BackendResend:
		backend = resendmail.New(resendmail.Config{
			APIKey:  cfg.ResendAPIKey,
			Timeout: cfg.MailTimeout,
		})
	case config.BackendSMTP:
		smtpSender := smtpmail.New(smtpmail.Config{
			Host:    cfg.SMTPHost,
			Port:    cfg.SMTPPort,
			User:    cfg.SMTPUser,
			Pass:    cfg.SMTPPass,
			Timeout: cfg.SMTPTimeout,
		})
		backend = smtpSender
		shutdownHooks = append(shutdownHooks, func(context.Context) error {
			return smtpSender.Close()
		})
	}

	log.Info("mail backend selected", slog.String("backend", string(cfg.Backend())))

	router := server.NewRouter(cfg, backend, log)
	return server.Run(context.Background(), fmt.Sprintf(":%d", cfg.Port), router, log, shutdownHooks...)
}
