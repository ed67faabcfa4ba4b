// Package server wires middleware and handlers into the HTTP router and
// owns the serve/shutdown lifecycle.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bmdub/contact-relay/internal/config"
	"github.com/bmdub/contact-relay/internal/handler"
	"github.com/bmdub/contact-relay/internal/logger"
	"github.com/bmdub/contact-relay/internal/mailer"
	"github.com/bmdub/contact-relay/internal/middleware"
)

const (
	defaultReadTimeout       = 10 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 2 * time.Minute
	defaultReadHeaderTimeout = 5 * time.Second
	defaultShutdownTimeout   = 15 * time.Second

	// maxBodyBytes caps contact submission bodies at 100KB.
	maxBodyBytes = 100 << 10
)

// MailBackend bundles the selected transport with its verifier; both
// backends implement both interfaces.
type MailBackend interface {
	mailer.Sender
	mailer.Verifier
}

// NewRouter assembles the full middleware chain and routes.
//
// Order matters: the CORS gate runs before everything route-level so
// disallowed origins never reach rate limiting or validation, and the rate
// limiter applies to the submission endpoint only.
func NewRouter(cfg config.Config, backend MailBackend, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recover(log))

	corsOpts := []middleware.CORSOption{
		middleware.WithAllowOrigins(cfg.CORSOrigins...),
	}
	if cfg.CORSCaseInsensitive {
		corsOpts = append(corsOpts, middleware.WithCaseInsensitiveOrigins())
	}
	r.Use(middleware.CORS(corsOpts...))

	r.Get("/", handler.Root)
	r.Get("/health", handler.Health)
	r.Get("/debug/verify", handler.Verify(string(cfg.Backend()), backend))

	contact := handler.NewContact(backend, handler.ContactConfig{
		From:                 cfg.FromEmail,
		To:                   cfg.ToEmail,
		ExposeDeliveryErrors: cfg.ExposeDeliveryErrors,
	}, log)

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimit, middleware.DefaultRateWindow)
	r.With(
		middleware.BodyLimit(maxBodyBytes),
		limiter.Middleware(),
	).Post("/contact", contact.ServeHTTP)

	return r
}

// RequestIDLogExtractor surfaces the chi request ID on every log line.
func RequestIDLogExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := chimw.GetReqID(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or a serve
// error, then shuts down gracefully and runs the shutdown hooks.
func Run(ctx context.Context, addr string, h http.Handler, log *slog.Logger, shutdownHooks ...func(context.Context) error) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Info("shutdown completed")
	return nil
}
