package screens

import (
	"context"
	"log/slog"

	"github.com/mmynk/tuitionbook/internal/api"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/session"
)

// AccountAPI is what the account screens need from the API.
type AccountAPI interface {
	Login(ctx context.Context, f forms.Login) (*api.LoginResult, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, f forms.Signup) (string, error)
	ForgotPassword(ctx context.Context, f forms.ForgotPassword) (string, error)
	UpdatePassword(ctx context.Context, f forms.UpdatePassword) (string, error)
	UpdateProfile(ctx context.Context, f forms.Profile) (*models.User, string, error)
	DeleteAccount(ctx context.Context, f forms.DeleteAccount) (string, error)
}

// Account drives sign in, sign up and the profile settings.
type Account struct {
	api     AccountAPI
	session UserSession
	notify  Notifier
	logger  *slog.Logger
	g       guard
}

func NewAccount(a AccountAPI, s UserSession, n Notifier) *Account {
	return &Account{api: a, session: s, notify: n, logger: slog.Default().With("screen", "account")}
}

// run validates form, then calls fn under the busy flag, notifying the
// outcome.
func (a *Account) run(form any, fn func() (string, error)) error {
	if err := validate(a.notify, form); err != nil {
		return err
	}
	release, err := a.g.acquire()
	if err != nil {
		return err
	}
	defer release()

	msg, err := fn()
	if err != nil {
		return fail(a.notify, err)
	}
	if msg != "" {
		a.notify.Success(msg)
	}
	return nil
}

// Login signs in and stores the user and token in the session.
func (a *Account) Login(ctx context.Context, f forms.Login) error {
	return a.run(f, func() (string, error) {
		res, err := a.api.Login(ctx, f)
		if err != nil {
			a.logger.Error("Login failed", "username", f.Username, "error", err)
			return "", err
		}
		p := session.Payload{User: res.User, Token: res.Token}
		if res.User != nil {
			p.TuitionInfo = res.User.Tuition
			p.StudentInfo = res.User.StudentInfo
		}
		if err := a.session.Login(ctx, p); err != nil {
			return "", err
		}
		a.logger.Info("Logged in", "username", f.Username)
		return res.Msg, nil
	})
}

// Signup registers a tuition. The user signs in afterwards.
func (a *Account) Signup(ctx context.Context, f forms.Signup) error {
	return a.run(f, func() (string, error) { return a.api.Register(ctx, f) })
}

// ForgotPassword requests a reset mail.
func (a *Account) ForgotPassword(ctx context.Context, f forms.ForgotPassword) error {
	return a.run(f, func() (string, error) { return a.api.ForgotPassword(ctx, f) })
}

// UpdatePassword changes the password.
func (a *Account) UpdatePassword(ctx context.Context, f forms.UpdatePassword) error {
	return a.run(f, func() (string, error) { return a.api.UpdatePassword(ctx, f) })
}

// UpdateProfile saves profile fields, including the UPI id, and merges the
// returned user into the session without touching the token.
func (a *Account) UpdateProfile(ctx context.Context, f forms.Profile) error {
	return a.run(f, func() (string, error) {
		user, msg, err := a.api.UpdateProfile(ctx, f)
		if err != nil {
			return "", err
		}
		if user != nil && (user.UUID != "" || user.Username != "") {
			p := session.Payload{User: user, TuitionInfo: user.Tuition}
			if err := a.session.Login(ctx, p); err != nil {
				return "", err
			}
		}
		return msg, nil
	})
}

// DeleteAccount removes the account and purges the session.
func (a *Account) DeleteAccount(ctx context.Context, f forms.DeleteAccount) error {
	return a.run(f, func() (string, error) {
		msg, err := a.api.DeleteAccount(ctx, f)
		if err != nil {
			return "", err
		}
		if err := a.session.Logout(ctx); err != nil {
			a.logger.Error("Failed to purge session", "error", err)
		}
		return msg, nil
	})
}

// Logout tells the server, then purges the session whatever the server said.
func (a *Account) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		a.logger.Warn("Logout request failed", "error", err)
	}
	if err := a.session.Logout(ctx); err != nil {
		return fail(a.notify, err)
	}
	a.notify.Success("Logged out")
	return nil
}
