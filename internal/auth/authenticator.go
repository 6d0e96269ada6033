package auth

import (
	"context"

	"github.com/mmynk/tuitionbook/internal/models"
)

// Registration is a new tuition with its admin account.
type Registration struct {
	TuitionName string
	Name        string
	Username    string
	Email       string
	Mobile      string
	Address     string
}

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, OTP, OAuth, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a tuition and its admin account with the given credential.
	// Returns the created admin user or an error if registration fails.
	Register(ctx context.Context, reg Registration, credential string) (*models.User, error)

	// Authenticate verifies the credential of the user identified by login
	// (username or email) and returns the user if successful.
	Authenticate(ctx context.Context, login, credential string) (*models.User, error)

	// ChangeCredential replaces the user's credential after verifying the current one.
	ChangeCredential(ctx context.Context, user *models.User, current, next string) error

	// CheckCredential verifies the user's current credential, for sensitive
	// operations such as deleting the account.
	CheckCredential(user *models.User, credential string) error

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
