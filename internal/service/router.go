// Package service implements the tuition REST API over chi.
package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/tuitionbook/internal/auth"
	"github.com/mmynk/tuitionbook/internal/middleware"
	"github.com/mmynk/tuitionbook/internal/storage"
)

// Config wires the services.
type Config struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	// CheckoutSecret verifies payment signatures.
	CheckoutSecret string
	// Metrics, when set, records every request.
	Metrics *middleware.Metrics
	Logger  *slog.Logger
}

// NewRouter returns the API handler.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(middleware.Logging(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		success(w, "ok", nil, nil)
	})

	authSvc := NewAuthService(cfg.Store, cfg.Authenticator, cfg.JWT, logger)
	tuitionSvc := NewTuitionService(cfg.Store, logger)
	paymentSvc := NewPaymentService(cfg.Store, cfg.CheckoutSecret, logger)

	authed := r.With(middleware.RequireAuth(cfg.JWT))
	authSvc.Routes(r, authed)
	tuitionSvc.Routes(authed)
	paymentSvc.Routes(authed)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		failure(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		failure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}
