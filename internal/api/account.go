package api

import (
	"context"
	"net/http"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/session"
)

// LoginResult is a successful login.
type LoginResult struct {
	User *models.User
	// Token is the Authorization value to persist, e.g. "Bearer eyJ...".
	Token string
	Msg   string
}

// Login exchanges credentials for a user and token.
func (c *Client) Login(ctx context.Context, f forms.Login) (*LoginResult, error) {
	env, err := c.call(ctx, http.MethodPost, "/login", f, nil)
	if err != nil {
		return nil, err
	}
	user := &models.User{}
	if err := env.Decode(user); err != nil {
		return nil, err
	}
	token := session.BearerToken(env.TokenType, env.AccessToken)
	if token == "" {
		return nil, &Error{Msg: "Login response carried no token", Status: env.HTTPStatus}
	}
	return &LoginResult{User: user, Token: token, Msg: env.Msg}, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.send(ctx, http.MethodPost, "/logout", nil, nil)
	return err
}

// Register creates a tuition and its admin account.
func (c *Client) Register(ctx context.Context, f forms.Signup) (string, error) {
	return c.send(ctx, http.MethodPost, "/register", f, nil)
}

// ForgotPassword asks the server to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, f forms.ForgotPassword) (string, error) {
	return c.send(ctx, http.MethodPost, "/password/forgot", f, nil)
}

// UpdatePassword changes the signed-in user's password.
func (c *Client) UpdatePassword(ctx context.Context, f forms.UpdatePassword) (string, error) {
	return c.send(ctx, http.MethodPost, "/password/update", f, nil)
}

// UpdateProfile saves profile fields and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, f forms.Profile) (*models.User, string, error) {
	user := &models.User{}
	msg, err := c.sendDecode(ctx, http.MethodPut, "/profile/update", f, user)
	if err != nil {
		return nil, "", err
	}
	return user, msg, nil
}

// DeleteAccount removes the tuition and everything it owns.
func (c *Client) DeleteAccount(ctx context.Context, f forms.DeleteAccount) (string, error) {
	return c.send(ctx, http.MethodPost, "/account/delete", f, nil)
}
