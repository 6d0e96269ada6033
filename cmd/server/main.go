package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tuitionbook/internal/auth"
	"github.com/mmynk/tuitionbook/internal/config"
	"github.com/mmynk/tuitionbook/internal/middleware"
	"github.com/mmynk/tuitionbook/internal/service"
	"github.com/mmynk/tuitionbook/internal/storage/sqlite"
	"github.com/mmynk/tuitionbook/pkg/logging"
)

// apiPrefix is where the API is mounted; clients put it in their api_url.
const apiPrefix = "/api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if cfg.JWTSecret == "" {
		slog.Error("TUITION_JWT_SECRET must be set")
		os.Exit(1)
	}
	if cfg.CheckoutKeySecret == "" {
		slog.Warn("TUITION_CHECKOUT_KEY_SECRET is empty, payment signatures are unkeyed")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	api := service.NewRouter(service.Config{
		Store:          store,
		Authenticator:  auth.NewPasswordAuthenticator(store, cfg.TrialDays),
		JWT:            auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		CheckoutSecret: cfg.CheckoutKeySecret,
		Metrics:        middleware.NewMetrics(prometheus.DefaultRegisterer),
		Logger:         slog.Default(),
	})

	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Mount(apiPrefix, api)

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(mux, &http2.Server{})

	slog.Info("Server starting", "address", cfg.Addr, "api", apiPrefix)
	if err := http.ListenAndServe(cfg.Addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
