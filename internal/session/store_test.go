package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/remote"
)

// fakeAPI counts calls so tests can assert which paths touch the network.
type fakeAPI struct {
	user models.User

	loginErr   error
	currentErr error

	loginCalls   int
	currentCalls int
	updateCalls  int
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (models.User, string, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return models.User{}, "", f.loginErr
	}
	return f.user, "tok-1", nil
}

func (f *fakeAPI) Signup(ctx context.Context, params remote.SignupParams) (models.User, string, error) {
	return f.user, "tok-1", nil
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (models.User, error) {
	f.currentCalls++
	if f.currentErr != nil {
		return models.User{}, f.currentErr
	}
	return f.user, nil
}

func (f *fakeAPI) UpdateProfile(ctx context.Context, update remote.ProfileUpdate) (models.User, error) {
	f.updateCalls++
	u := f.user
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	return u, nil
}

// memCreds is an in-memory Credentials implementation.
type memCreds struct {
	token string
	user  *models.User
}

func (m *memCreds) Token() (string, error) { return m.token, nil }
func (m *memCreds) SetToken(token string) error {
	m.token = token
	return nil
}
func (m *memCreds) User() (*models.User, error) { return m.user, nil }
func (m *memCreds) SetUser(u models.User) error {
	m.user = &u
	return nil
}
func (m *memCreds) Clear() error {
	m.token = ""
	m.user = nil
	return nil
}

func signToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("any-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestLoginCommitsSession(t *testing.T) {
	api := &fakeAPI{user: models.User{ID: "u1", Name: "Ana", Username: "ana"}}
	creds := &memCreds{}
	s := New(api, creds, nil)

	if err := s.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}

	snap := s.Snapshot()
	if snap.State != Authenticated {
		t.Errorf("state = %v, want Authenticated", snap.State)
	}
	if snap.User == nil || snap.User.ID != "u1" {
		t.Errorf("user = %+v, want u1", snap.User)
	}
	if creds.token != "tok-1" {
		t.Errorf("durable token = %q, want tok-1", creds.token)
	}
}

func TestFailedLoginCommitsNothing(t *testing.T) {
	api := &fakeAPI{loginErr: errors.New("incorrect password")}
	creds := &memCreds{}
	s := New(api, creds, nil)

	if err := s.Login(context.Background(), "a@b.c", "wrong"); err == nil {
		t.Fatal("expected login error")
	}
	if snap := s.Snapshot(); snap.State != Unauthenticated || snap.User != nil {
		t.Errorf("snapshot = %+v, want untouched unauthenticated state", snap)
	}
	if creds.token != "" {
		t.Errorf("durable token = %q, want empty", creds.token)
	}
}

func TestRestoreValidToken(t *testing.T) {
	api := &fakeAPI{user: models.User{ID: "u1", Name: "Ana"}}
	creds := &memCreds{token: signToken(t, time.Now().Add(time.Hour))}
	s := New(api, creds, nil)

	s.Restore(context.Background())

	if snap := s.Snapshot(); snap.State != Authenticated {
		t.Errorf("state = %v, want Authenticated", snap.State)
	}
	if api.currentCalls != 1 {
		t.Errorf("currentCalls = %d, want 1", api.currentCalls)
	}
}

func TestRestoreExpiredTokenSkipsNetwork(t *testing.T) {
	api := &fakeAPI{user: models.User{ID: "u1"}}
	creds := &memCreds{token: signToken(t, time.Now().Add(-time.Hour))}
	s := New(api, creds, nil)

	s.Restore(context.Background())

	if api.currentCalls != 0 {
		t.Errorf("currentCalls = %d, want 0 for locally expired token", api.currentCalls)
	}
	if snap := s.Snapshot(); snap.State != Unauthenticated {
		t.Errorf("state = %v, want Unauthenticated", snap.State)
	}
	if creds.token != "" {
		t.Errorf("durable token = %q, want cleared", creds.token)
	}
}

func TestRestoreRejectedTokenClears(t *testing.T) {
	api := &fakeAPI{currentErr: errors.New("401")}
	creds := &memCreds{token: signToken(t, time.Now().Add(time.Hour))}
	s := New(api, creds, nil)

	s.Restore(context.Background())

	if snap := s.Snapshot(); snap.State != Unauthenticated {
		t.Errorf("state = %v, want Unauthenticated", snap.State)
	}
	if creds.token != "" {
		t.Errorf("durable token = %q, want cleared", creds.token)
	}
}

func TestRestoreNoTokenNoNetwork(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, &memCreds{}, nil)

	s.Restore(context.Background())

	if api.currentCalls != 0 {
		t.Errorf("currentCalls = %d, want 0", api.currentCalls)
	}
	if snap := s.Snapshot(); snap.State != Unauthenticated {
		t.Errorf("state = %v, want Unauthenticated", snap.State)
	}
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	api := &fakeAPI{user: models.User{ID: "u1"}}
	creds := &memCreds{}
	s := New(api, creds, nil)
	if err := s.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}

	s.Logout()

	if snap := s.Snapshot(); snap.State != Unauthenticated || snap.User != nil {
		t.Errorf("snapshot after logout = %+v", snap)
	}
	if creds.token != "" || creds.user != nil {
		t.Error("durable state should be cleared")
	}
}

func TestUpdateProfileNoOpWhenSignedOut(t *testing.T) {
	api := &fakeAPI{}
	s := New(api, &memCreds{}, nil)

	name := "New Name"
	if err := s.UpdateProfile(context.Background(), remote.ProfileUpdate{Name: &name}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.updateCalls != 0 {
		t.Errorf("updateCalls = %d, want 0", api.updateCalls)
	}
}

func TestUpdateProfileEmptyNoOp(t *testing.T) {
	api := &fakeAPI{user: models.User{ID: "u1"}}
	s := New(api, &memCreds{}, nil)
	if err := s.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateProfile(context.Background(), remote.ProfileUpdate{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.updateCalls != 0 {
		t.Errorf("updateCalls = %d, want 0 for empty update", api.updateCalls)
	}
}

func TestUpdateProfilePreservesCreatedAt(t *testing.T) {
	created := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{user: models.User{ID: "u1", Name: "Ana", CreatedAt: created}}
	s := New(api, &memCreds{}, nil)
	if err := s.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}

	// The update response carries no creation timestamp.
	api.user.CreatedAt = time.Time{}
	name := "Ana P."
	if err := s.UpdateProfile(context.Background(), remote.ProfileUpdate{Name: &name}); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	if snap.User.Name != "Ana P." {
		t.Errorf("name = %q, want merged update", snap.User.Name)
	}
	if !snap.User.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want preserved %v", snap.User.CreatedAt, created)
	}
}
