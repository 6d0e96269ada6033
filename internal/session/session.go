// Package session holds the authenticated user, their tuition and the access
// token, and persists them across restarts.
//
// A Store is created once at start and passed to whatever needs it. Only two
// keys are written to Storage: KeyAuth, the JSON encoded State, and
// KeyAccessToken, the Authorization header value the gateway sends.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmynk/tuitionbook/internal/models"
)

// Persisted keys.
const (
	KeyAuth        = "auth"
	KeyAccessToken = "access_token"
)

// Route is the screen a fresh start lands on.
type Route string

const (
	RouteLogin     Route = "login"
	RoutePlans     Route = "plans"
	RouteDashboard Route = "dashboard"
)

// State is the auth slice. IsAuthenticated is true exactly when Token is set.
type State struct {
	User            *models.User        `json:"user"`
	StudentInfo     *models.StudentInfo `json:"studentInfo"`
	TuitionInfo     *models.Tuition     `json:"tuitionInfo"`
	Token           string              `json:"token"`
	IsAuthenticated bool                `json:"isAuthenticated"`
}

// Payload is a partial login update. Nil and empty fields are left alone.
type Payload struct {
	User        *models.User
	StudentInfo *models.StudentInfo
	TuitionInfo *models.Tuition

	// Token is the full Authorization value, see BearerToken.
	Token string
}

// BearerToken formats the login response token fields as an Authorization
// header value: "bearer" and "xyz" become "Bearer xyz".
func BearerToken(tokenType, accessToken string) string {
	if accessToken == "" {
		return ""
	}
	if tokenType == "" {
		tokenType = "bearer"
	}
	return strings.ToUpper(tokenType[:1]) + tokenType[1:] + " " + accessToken
}

// Store is the session store.
type Store struct {
	storage Storage
	logger  *slog.Logger

	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// New creates a Store over storage with an empty session.
func New(storage Storage) *Store {
	return &Store{
		storage:   storage,
		logger:    slog.Default(),
		listeners: map[int]func(State){},
	}
}

// State returns a snapshot of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn to run after every change. The returned function
// removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Login merges p into the session. A token marks the session authenticated;
// a payload without one, such as a profile refresh, leaves that unchanged.
func (s *Store) Login(ctx context.Context, p Payload) error {
	s.mu.Lock()
	if p.User != nil {
		s.state.User = p.User
	}
	if p.StudentInfo != nil {
		s.state.StudentInfo = p.StudentInfo
	}
	if p.TuitionInfo != nil {
		s.state.TuitionInfo = p.TuitionInfo
	}
	if p.Token != "" {
		s.state.Token = p.Token
		s.state.IsAuthenticated = true
	}
	err := s.persistLocked(ctx, p.Token != "")
	s.mu.Unlock()

	s.notify()
	return err
}

// Logout resets the session to its initial shape and purges storage.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = State{}
	var err error
	for _, key := range []string{KeyAuth, KeyAccessToken} {
		if derr := s.storage.Delete(ctx, key); derr != nil && err == nil {
			err = fmt.Errorf("failed to delete %s: %w", key, derr)
		}
	}
	s.mu.Unlock()

	s.notify()
	return err
}

// ForceLogout ends the session after the server rejected it. It matches
// gateway.LogoutFunc.
func (s *Store) ForceLogout(ctx context.Context) {
	if err := s.Logout(ctx); err != nil {
		s.logger.Error("Failed to purge session", "error", err)
	}
}

// UpdateUser shallow-merges partial into the user using wire field names,
// for example {"is_expired": false}. It does nothing when no user is signed in.
func (s *Store) UpdateUser(ctx context.Context, partial map[string]any) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return nil
	}

	merged, err := mergeUser(s.state.User, partial)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.User = merged
	err = s.persistLocked(ctx, false)
	s.mu.Unlock()

	s.notify()
	return err
}

// Rehydrate restores the session saved by a previous run.
func (s *Store) Rehydrate(ctx context.Context) error {
	raw, ok, err := s.storage.Get(ctx, KeyAuth)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || raw == "" {
		return nil
	}

	var st State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}
	st.IsAuthenticated = st.Token != ""

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.notify()
	return nil
}

// InitialRoute picks the first screen for the current session.
func (s *Store) InitialRoute() Route {
	st := s.State()
	switch {
	case !st.IsAuthenticated:
		return RouteLogin
	case st.User != nil && st.User.IsExpired:
		return RoutePlans
	default:
		return RouteDashboard
	}
}

// AccessToken returns the stored Authorization value, or "".
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	v, _, err := s.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	return v, nil
}

func (s *Store) persistLocked(ctx context.Context, withToken bool) error {
	b, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.storage.Set(ctx, KeyAuth, string(b)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if withToken {
		if err := s.storage.Set(ctx, KeyAccessToken, s.state.Token); err != nil {
			return fmt.Errorf("failed to save access token: %w", err)
		}
	}
	return nil
}

func (s *Store) notify() {
	s.mu.RLock()
	st := s.state
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(st)
	}
}

func mergeUser(u *models.User, partial map[string]any) (*models.User, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	for k, v := range partial {
		fields[k] = v
	}
	b, err = json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	merged := &models.User{}
	if err := json.Unmarshal(b, merged); err != nil {
		return nil, fmt.Errorf("failed to apply user update: %w", err)
	}
	return merged, nil
}
