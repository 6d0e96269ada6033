// Package config loads Tuitionbook settings from the environment, an optional
// .env file and built-in defaults.
//
// Every key can be set as TUITION_<KEY> (for example TUITION_API_URL). The
// .env file is read from TUITION_ENV_FILE, or ".env" in the working directory
// when that variable is unset; a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Session persistence backends.
const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
)

// Config holds client and server settings.
type Config struct {
	// Client
	APIURL              string
	ShowAllRequestURL   bool
	LogLevel            string
	SessionBackend      string
	SessionPath         string
	ForceLogoutStatuses []int
	RequestTimeout      time.Duration
	NetwatchPingURL    string
	NetwatchInterval    time.Duration

	// Checkout (shared: the client needs the key id, the server the secret)
	CheckoutKeyID     string
	CheckoutKeySecret string

	// Server
	Addr      string
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration
	TrialDays int
}

// Load reads the configuration.
func Load() (*Config, error) {
	envFile := os.Getenv("TUITION_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TUITION")
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:8080/api")
	v.SetDefault("show_all_request_url", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("session_backend", SessionBackendFile)
	v.SetDefault("session_path", defaultSessionPath())
	v.SetDefault("force_logout_statuses", "401,500")
	v.SetDefault("request_timeout", time.Duration(0))
	v.SetDefault("netwatch_ping_url", "")
	v.SetDefault("netwatch_interval", 5*time.Second)
	v.SetDefault("checkout_key_id", "rzp_test_tuitionbook")
	v.SetDefault("checkout_key_secret", "")

	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "./data/tuitionbook.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", 30*24*time.Hour)
	v.SetDefault("trial_days", 14)
}

func fromViper(v *viper.Viper) (*Config, error) {
	statuses, err := ParseStatuses(v.GetString("force_logout_statuses"))
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(v.GetString("session_backend"))
	if backend != SessionBackendFile && backend != SessionBackendSQLite {
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}

	// time.NewTicker panics on a non-positive interval.
	interval := v.GetDuration("netwatch_interval")
	if interval <= 0 {
		return nil, fmt.Errorf("netwatch_interval must be positive, got %q", v.GetString("netwatch_interval"))
	}

	return &Config{
		APIURL:              strings.TrimRight(v.GetString("api_url"), "/"),
		ShowAllRequestURL:   v.GetBool("show_all_request_url"),
		LogLevel:            v.GetString("log_level"),
		SessionBackend:      backend,
		SessionPath:         v.GetString("session_path"),
		ForceLogoutStatuses: statuses,
		RequestTimeout:      v.GetDuration("request_timeout"),
		NetwatchPingURL:    v.GetString("netwatch_ping_url"),
		NetwatchInterval:    interval,
		CheckoutKeyID:       v.GetString("checkout_key_id"),
		CheckoutKeySecret:   v.GetString("checkout_key_secret"),
		Addr:                v.GetString("addr"),
		DBPath:              v.GetString("db_path"),
		JWTSecret:           v.GetString("jwt_secret"),
		TokenTTL:            v.GetDuration("token_ttl"),
		TrialDays:           v.GetInt("trial_days"),
	}, nil
}

// ParseStatuses parses a comma separated list of HTTP status codes.
// An empty string yields no statuses, which disables forced logout.
func ParseStatuses(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, err := strconv.Atoi(part)
		if err != nil || code < 100 || code > 599 {
			return nil, fmt.Errorf("invalid status code %q in force_logout_statuses", part)
		}
		out = append(out, code)
	}
	return out, nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "tuitionbook-session.json")
	}
	return filepath.Join(dir, "tuitionbook", "session.json")
}
