package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmynk/tuitionbook/internal/models"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		tokenType, token, want string
	}{
		{"bearer", "abc", "Bearer abc"},
		{"Bearer", "abc", "Bearer abc"},
		{"", "abc", "Bearer abc"},
		{"bearer", "", ""},
	}
	for _, tt := range tests {
		if got := BearerToken(tt.tokenType, tt.token); got != tt.want {
			t.Errorf("BearerToken(%q, %q) = %q, want %q", tt.tokenType, tt.token, got, tt.want)
		}
	}
}

func TestLoginAuthenticatesOnlyWithToken(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryStorage())

	if err := store.Login(ctx, Payload{User: &models.User{Name: "Asha"}}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if st := store.State(); st.IsAuthenticated || st.User == nil {
		t.Fatalf("profile-only login should not authenticate: %+v", st)
	}

	if err := store.Login(ctx, Payload{Token: "Bearer abc"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	st := store.State()
	if !st.IsAuthenticated || st.Token != "Bearer abc" {
		t.Fatalf("expected authenticated session, got %+v", st)
	}
	if st.User == nil || st.User.Name != "Asha" {
		t.Errorf("login with token only should keep the user, got %+v", st.User)
	}

	token, err := store.AccessToken(ctx)
	if err != nil || token != "Bearer abc" {
		t.Errorf("AccessToken() = %q, %v", token, err)
	}

	// A later profile refresh keeps the session authenticated.
	if err := store.Login(ctx, Payload{User: &models.User{Name: "Asha K"}}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if st := store.State(); !st.IsAuthenticated || st.User.Name != "Asha K" {
		t.Errorf("profile refresh changed auth: %+v", st)
	}
}

func TestLogoutResetsAndPurges(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := New(storage)

	store.Login(ctx, Payload{
		User:        &models.User{Name: "Asha"},
		TuitionInfo: &models.Tuition{Name: "Bright Minds"},
		Token:       "Bearer abc",
	})
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if st := store.State(); st != (State{}) {
		t.Errorf("expected initial state, got %+v", st)
	}
	for _, key := range []string{KeyAuth, KeyAccessToken} {
		if _, ok, _ := storage.Get(ctx, key); ok {
			t.Errorf("key %q still stored after logout", key)
		}
	}
	if store.InitialRoute() != RouteLogin {
		t.Errorf("InitialRoute() = %q", store.InitialRoute())
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryStorage())

	// No user yet: nothing happens.
	if err := store.UpdateUser(ctx, map[string]any{"is_expired": false}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	if store.State().User != nil {
		t.Fatal("UpdateUser created a user")
	}

	store.Login(ctx, Payload{User: &models.User{Name: "Asha", Username: "asha", IsExpired: true}, Token: "Bearer abc"})
	if store.InitialRoute() != RoutePlans {
		t.Errorf("expired user should start on plans, got %q", store.InitialRoute())
	}

	if err := store.UpdateUser(ctx, map[string]any{"is_expired": false, "upi_id": "asha@upi"}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	u := store.State().User
	if u.IsExpired || u.UpiID != "asha@upi" || u.Username != "asha" {
		t.Errorf("unexpected merged user %+v", u)
	}
	if store.InitialRoute() != RouteDashboard {
		t.Errorf("InitialRoute() = %q", store.InitialRoute())
	}
}

func TestRehydrateFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first := New(NewFileStorage(path))
	if err := first.Login(ctx, Payload{User: &models.User{Name: "Asha"}, Token: "Bearer abc"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	second := New(NewFileStorage(path))
	if second.InitialRoute() != RouteLogin {
		t.Fatal("fresh store should start on login")
	}
	if err := second.Rehydrate(ctx); err != nil {
		t.Fatalf("Rehydrate failed: %v", err)
	}
	st := second.State()
	if !st.IsAuthenticated || st.User == nil || st.User.Name != "Asha" {
		t.Errorf("unexpected rehydrated state %+v", st)
	}
	token, _ := second.AccessToken(ctx)
	if token != "Bearer abc" {
		t.Errorf("AccessToken() = %q", token)
	}
}

func TestRehydrateEmpty(t *testing.T) {
	store := New(NewFileStorage(filepath.Join(t.TempDir(), "missing", "session.json")))
	if err := store.Rehydrate(context.Background()); err != nil {
		t.Fatalf("Rehydrate failed: %v", err)
	}
	if store.State().IsAuthenticated {
		t.Error("expected unauthenticated state")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	store := New(NewMemoryStorage())

	var seen []bool
	unsubscribe := store.Subscribe(func(st State) { seen = append(seen, st.IsAuthenticated) })

	store.Login(ctx, Payload{Token: "Bearer abc"})
	store.ForceLogout(ctx)
	unsubscribe()
	store.Login(ctx, Payload{Token: "Bearer def"})

	if len(seen) != 2 || !seen[0] || seen[1] {
		t.Errorf("listener saw %v, want [true false]", seen)
	}
}
