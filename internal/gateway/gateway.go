// Package gateway wraps every outgoing API call: it attaches the stored bearer
// token, encodes the body, and folds every outcome into an Envelope.
//
// The gateway never returns a Go error. Transport failures, bad JSON and
// non-2xx answers all come back as an Envelope with status "error", so callers
// handle one shape. Nothing is retried.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenSource yields the Authorization header value to send, read from
// persisted storage on every request. An empty token sends no header.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// LogoutFunc is invoked when a response status forces the session to end.
type LogoutFunc func(ctx context.Context)

// Options describes one request.
type Options struct {
	// Method defaults to GET.
	Method string

	// Data is the request body for methods other than GET and HEAD.
	// A *Multipart is sent as multipart/form-data; anything else as JSON.
	Data any

	// Headers override the defaults, including Authorization.
	Headers map[string]string

	// Query is appended to the URL.
	Query url.Values
}

// DefaultForceLogoutStatuses are the statuses that end the session. 500 is
// in the list because the API has always answered expired sessions that way;
// deployments with a well-behaved server can narrow it to 401.
var DefaultForceLogoutStatuses = []int{http.StatusUnauthorized, http.StatusInternalServerError}

// Gateway issues API requests.
type Gateway struct {
	baseURL     string
	client      *http.Client
	tokens      TokenSource
	onLogout    LogoutFunc
	forceLogout map[int]bool
	logURLs     bool
	logger      *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithTimeout sets a per-request timeout. Zero, the default, means none.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.client.Timeout = d }
}

// WithForceLogoutStatuses replaces the statuses that trigger the logout hook.
func WithForceLogoutStatuses(codes ...int) Option {
	return func(g *Gateway) {
		g.forceLogout = make(map[int]bool, len(codes))
		for _, c := range codes {
			g.forceLogout[c] = true
		}
	}
}

// WithLogoutHook sets the function called on a force-logout status.
func WithLogoutHook(fn LogoutFunc) Option {
	return func(g *Gateway) { g.onLogout = fn }
}

// WithRequestLogging logs every request URL at info level.
func WithRequestLogging(enabled bool) Option {
	return func(g *Gateway) { g.logURLs = enabled }
}

// WithLogger sets the logger, slog.Default() otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.logger = l }
}

// New creates a Gateway for the API at baseURL.
func New(baseURL string, tokens TokenSource, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		tokens:  tokens,
		logger:  slog.Default(),
	}
	WithForceLogoutStatuses(DefaultForceLogoutStatuses...)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do issues the request and returns the parsed envelope.
func (g *Gateway) Do(ctx context.Context, path string, opts Options) *Envelope {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := g.newRequest(ctx, method, path, opts)
	if err != nil {
		g.logger.Error("Failed to build request", "method", method, "path", path, "error", err)
		return errorEnvelope(0, "error")
	}

	if g.logURLs {
		g.logger.Info("API request", "method", method, "url", req.URL.String())
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("Request failed", "method", method, "path", path, "error", err)
		return errorEnvelope(0, "error")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error("Failed to read response", "method", method, "path", path, "error", err)
		return errorEnvelope(resp.StatusCode, "error")
	}
	env, parseErr := parseEnvelope(body)

	if g.forceLogout[resp.StatusCode] {
		g.logger.Warn("Session ended by server response", "path", path, "status", resp.StatusCode)
		if g.onLogout != nil {
			g.onLogout(ctx)
		}
		out := errorEnvelope(resp.StatusCode, "")
		if parseErr == nil {
			out.Msg = env.Msg
		}
		out.Data = json.RawMessage("[]")
		return out
	}

	if parseErr != nil {
		g.logger.Error("Failed to parse response", "method", method, "path", path, "status", resp.StatusCode, "error", parseErr)
		return errorEnvelope(resp.StatusCode, "error")
	}
	env.HTTPStatus = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Msg
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status %d!", resp.StatusCode)
		}
		return errorEnvelope(resp.StatusCode, msg)
	}

	return env
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, opts Options) (*http.Request, error) {
	target := g.baseURL + path
	if len(opts.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + opts.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	if method != http.MethodGet && method != http.MethodHead {
		switch data := opts.Data.(type) {
		case *Multipart:
			buf, ct, err := data.encode()
			if err != nil {
				return nil, err
			}
			body, contentType = buf, ct
		default:
			b, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("failed to encode body: %w", err)
			}
			body, contentType = bytes.NewReader(b), "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if g.tokens != nil {
		token, err := g.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read access token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", token)
		}
	}

	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
