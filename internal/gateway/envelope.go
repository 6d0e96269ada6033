package gateway

import (
	"encoding/json"
	"fmt"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the uniform response shape of every endpoint:
// {status, msg, data}, plus token fields on /login and occasional top-level
// extras such as order_id.
type Envelope struct {
	Status      string          `json:"status"`
	Msg         string          `json:"msg,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	TokenType   string          `json:"token_type,omitempty"`
	AccessToken string          `json:"access_token,omitempty"`

	// HTTPStatus is the response status code, zero when no response arrived.
	HTTPStatus int `json:"-"`

	fields map[string]json.RawMessage
}

// OK reports whether the server answered with status "success".
func (e *Envelope) OK() bool {
	return e != nil && e.Status == StatusSuccess
}

// Decode unmarshals the data member into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Field unmarshals a top-level member other than data into v.
// It reports false when the member is absent.
func (e *Envelope) Field(name string, v any) (bool, error) {
	raw, ok := e.fields[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

func errorEnvelope(code int, msg string) *Envelope {
	return &Envelope{Status: StatusError, Msg: msg, HTTPStatus: code}
}

func parseEnvelope(body []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &env.fields); err != nil {
		return nil, err
	}
	return env, nil
}
