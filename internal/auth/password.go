package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/tuitionbook/internal/billing"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("Invalid username or password")
	ErrWeakPassword       = errors.New("Password must be at least 6 characters")
	ErrAccountExists      = errors.New("Username or email already registered")
	ErrWrongPassword      = errors.New("Current password is incorrect")
)

// minPasswordLen matches the login form.
const minPasswordLen = 6

// UserStorage defines the user persistence operations the authenticator needs.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateTuition(ctx context.Context, tuition *models.Tuition, admin *models.User) error
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage   UserStorage
	trialDays int
	now       func() time.Time
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// New tuitions get trialDays of subscription.
func NewPasswordAuthenticator(storage UserStorage, trialDays int) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage:   storage,
		trialDays: trialDays,
		now:       time.Now,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// Register creates the tuition and its admin account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, reg Registration, credential string) (*models.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	for _, login := range []string{reg.Username, reg.Email} {
		if _, err := a.storage.GetUserByLogin(ctx, login); err == nil {
			return nil, ErrAccountExists
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now()
	tuition := &models.Tuition{
		Name:      reg.TuitionName,
		Address:   reg.Address,
		Mobile:    reg.Mobile,
		Email:     reg.Email,
		ExpiresAt: billing.ExtendExpiry(0, now, a.trialDays),
	}
	user := &models.User{
		Name:         reg.Name,
		Username:     reg.Username,
		Email:        reg.Email,
		Mobile:       reg.Mobile,
		Address:      reg.Address,
		Role:         models.RoleAdmin,
		PasswordHash: string(hashedPassword),
	}

	if err := a.storage.CreateTuition(ctx, tuition, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to create tuition: %w", err)
	}

	return user, nil
}

// Authenticate verifies the login and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, login, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user.IsExpired = billing.IsExpired(user.ExpiresAt, a.now())
	return user, nil
}

// ChangeCredential verifies current and stores the hash of next.
func (a *PasswordAuthenticator) ChangeCredential(ctx context.Context, user *models.User, current, next string) error {
	if err := a.CheckCredential(user, current); err != nil {
		return err
	}
	if err := a.ValidateCredential(next); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)
	if err := a.storage.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to save password: %w", err)
	}
	return nil
}

// CheckCredential reports ErrWrongPassword unless credential is the user's password.
func (a *PasswordAuthenticator) CheckCredential(user *models.User, credential string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
