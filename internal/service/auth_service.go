package service

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/tuitionbook/internal/auth"
	"github.com/mmynk/tuitionbook/internal/billing"
	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/middleware"
	"github.com/mmynk/tuitionbook/internal/models"
	"github.com/mmynk/tuitionbook/internal/storage"
)

// AuthService serves sign in, registration and account settings.
type AuthService struct {
	store         storage.Store
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
	now           func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:         store,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
		now:           time.Now,
	}
}

// Routes mounts the public endpoints on r and the signed-in ones on authed.
func (s *AuthService) Routes(r, authed chi.Router) {
	r.Post("/login", s.Login)
	r.Post("/register", s.Register)
	r.Post("/password/forgot", s.ForgotPassword)

	authed.Post("/logout", s.Logout)
	authed.Post("/password/update", s.UpdatePassword)
	authed.Put("/profile/update", s.UpdateProfile)
	authed.With(middleware.RequireRole(models.RoleAdmin)).Post("/account/delete", s.DeleteAccount)
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req forms.Login
	if !decode(w, r, &req) {
		return
	}
	s.logger.Info("Login request", "username", req.Username)

	user, err := s.authenticator.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Username, "error", err)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			failure(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		failure(w, http.StatusInternalServerError, "Something went wrong, please try again")
		return
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.UUID, "error", err)
		failure(w, http.StatusInternalServerError, "Something went wrong, please try again")
		return
	}

	s.logger.Info("User logged in", "user_id", user.UUID, "tuition_id", user.TuitionID)
	success(w, "Login successful", user, envelope{
		"token_type":   auth.TokenType,
		"access_token": token,
	})
}

// Logout ends the session. Tokens are stateless; the client drops its copy.
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("Logout request", "user_id", middleware.GetUserID(r.Context()))
	success(w, "Logged out successfully", nil, nil)
}

// Register creates a tuition and its admin account.
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req forms.Signup
	if !decode(w, r, &req) {
		return
	}
	s.logger.Info("Register request", "username", req.Username, "email", req.Email)

	user, err := s.authenticator.Register(r.Context(), auth.Registration{
		TuitionName: strings.TrimSpace(req.TuitionName),
		Name:        strings.TrimSpace(req.Name),
		Username:    req.Username,
		Email:       req.Email,
		Mobile:      req.Mobile,
		Address:     req.Address,
	}, req.Password)
	if err != nil {
		s.logger.Error("Registration failed", "username", req.Username, "error", err)
		switch {
		case errors.Is(err, auth.ErrAccountExists):
			failure(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			failure(w, http.StatusUnprocessableEntity, err.Error())
		default:
			failure(w, http.StatusInternalServerError, "Something went wrong, please try again")
		}
		return
	}

	s.logger.Info("Tuition registered", "user_id", user.UUID, "tuition_id", user.TuitionID)
	success(w, "Registration successful, please log in", user, nil)
}

// ForgotPassword answers the same way whether or not the email is known.
func (s *AuthService) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forms.ForgotPassword
	if !decode(w, r, &req) {
		return
	}
	if _, err := s.store.GetUserByLogin(r.Context(), req.Email); err == nil {
		s.logger.Info("Password reset requested", "email", req.Email)
	} else {
		s.logger.Info("Password reset for unknown email", "email", req.Email)
	}
	success(w, "If the email is registered, a reset link has been sent", nil, nil)
}

// UpdatePassword changes the caller's password.
func (s *AuthService) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req forms.UpdatePassword
	if !decode(w, r, &req) {
		return
	}
	userID := middleware.GetUserID(r.Context())

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		storeFailure(w, "User", err, "user_id", userID)
		return
	}
	if err := s.authenticator.ChangeCredential(r.Context(), user, req.Password, req.NewPassword); err != nil {
		s.logger.Warn("Password update failed", "user_id", userID, "error", err)
		if errors.Is(err, auth.ErrWrongPassword) || errors.Is(err, auth.ErrWeakPassword) {
			failure(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		failure(w, http.StatusInternalServerError, "Something went wrong, please try again")
		return
	}

	s.logger.Info("Password updated", "user_id", userID)
	success(w, "Password updated successfully", nil, nil)
}

// UpdateProfile saves the non-empty profile fields and returns the user.
func (s *AuthService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req forms.Profile
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	s.logger.Info("UpdateProfile request", "user_id", userID)

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		storeFailure(w, "User", err, "user_id", userID)
		return
	}
	setIf(&user.Name, req.Name)
	setIf(&user.Mobile, req.Mobile)
	setIf(&user.Email, req.Email)
	setIf(&user.Address, req.Address)
	setIf(&user.UpiID, req.UpiID)
	if err := s.store.UpdateUser(ctx, user); err != nil {
		storeFailure(w, "Email", err, "user_id", userID)
		return
	}

	if req.TuitionName != "" && user.Role == models.RoleAdmin && user.Tuition != nil {
		user.Tuition.Name = strings.TrimSpace(req.TuitionName)
		if err := s.store.UpdateTuition(ctx, user.Tuition); err != nil {
			storeFailure(w, "Tuition", err, "tuition_id", user.TuitionID)
			return
		}
	}

	user, err = s.store.GetUser(ctx, userID)
	if err != nil {
		storeFailure(w, "User", err, "user_id", userID)
		return
	}
	user.IsExpired = billing.IsExpired(user.ExpiresAt, s.now())

	s.logger.Info("UpdateProfile successful", "user_id", userID)
	success(w, "Profile updated successfully", user, nil)
}

// DeleteAccount removes the caller's tuition after checking the password.
func (s *AuthService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req forms.DeleteAccount
	if !decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		storeFailure(w, "User", err, "user_id", userID)
		return
	}
	if err := s.authenticator.CheckCredential(user, req.Password); err != nil {
		failure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := s.store.DeleteTuition(ctx, user.TuitionID); err != nil {
		storeFailure(w, "Tuition", err, "tuition_id", user.TuitionID)
		return
	}

	s.logger.Info("Account deleted", "user_id", userID, "tuition_id", user.TuitionID)
	success(w, "Account deleted successfully", nil, nil)
}

func setIf(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
