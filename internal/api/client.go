// Package api is the typed client for the tuition REST API. Every call goes
// through the gateway; a "status":"error" envelope becomes an *Error.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mmynk/tuitionbook/internal/gateway"
)

// Error is a failure reported by the API, or by the gateway on its behalf.
// Msg is meant to be shown to the user as is.
type Error struct {
	Msg    string
	Status int
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return "request failed"
	}
	return e.Msg
}

// Doer issues one request. *gateway.Gateway implements it.
type Doer interface {
	Do(ctx context.Context, path string, opts gateway.Options) *gateway.Envelope
}

// Client calls the API endpoints.
type Client struct {
	gw Doer
}

// New creates a Client over gw.
func New(gw Doer) *Client {
	return &Client{gw: gw}
}

func (c *Client) call(ctx context.Context, method, path string, body any, query url.Values) (*gateway.Envelope, error) {
	env := c.gw.Do(ctx, path, gateway.Options{Method: method, Data: body, Query: query})
	if !env.OK() {
		return nil, &Error{Msg: env.Msg, Status: env.HTTPStatus}
	}
	return env, nil
}

// get fetches path and decodes its data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	env, err := c.call(ctx, http.MethodGet, path, nil, query)
	if err != nil {
		return err
	}
	if err := env.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// send issues a mutation and returns the server message.
func (c *Client) send(ctx context.Context, method, path string, body any, query url.Values) (string, error) {
	env, err := c.call(ctx, method, path, body, query)
	if err != nil {
		return "", err
	}
	return env.Msg, nil
}

// sendDecode issues a mutation and decodes its data into out. A response
// without data leaves out untouched.
func (c *Client) sendDecode(ctx context.Context, method, path string, body, out any) (string, error) {
	env, err := c.call(ctx, method, path, body, nil)
	if err != nil {
		return "", err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return env.Msg, nil
	}
	if err := env.Decode(out); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return env.Msg, nil
}

func boolQuery(name string, v bool) url.Values {
	return url.Values{name: {strconv.FormatBool(v)}}
}
