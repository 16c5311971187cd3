// Package session holds the authenticated user and keeps the in-memory
// identity consistent with the durably stored bearer token.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/remote"
)

// State is the session lifecycle state.
type State int

const (
	// Unauthenticated means no identity is held; absence of a token.
	Unauthenticated State = iota
	// Loading means a durable token exists and is being verified.
	Loading
	// Authenticated means the identity has been confirmed by the backend.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// API is the slice of the remote client the session store depends on.
type API interface {
	Login(ctx context.Context, email, password string) (models.User, string, error)
	Signup(ctx context.Context, params remote.SignupParams) (models.User, string, error)
	CurrentUser(ctx context.Context) (models.User, error)
	UpdateProfile(ctx context.Context, update remote.ProfileUpdate) (models.User, error)
}

// Credentials is the durable storage behind the session: the token under a
// fixed key plus the cached profile.
type Credentials interface {
	Token() (string, error)
	SetToken(token string) error
	User() (*models.User, error)
	SetUser(u models.User) error
	Clear() error
}

// Snapshot is the externally visible session state. User is a copy; nil means
// not signed in.
type Snapshot struct {
	State State
	User  *models.User
}

// Store is the session state container. At most one identity is held at a
// time; the durable token and the in-memory identity are consistent except
// during the Loading window of Restore.
type Store struct {
	api    API
	creds  Credentials
	logger *slog.Logger

	mu    sync.Mutex
	state State
	user  *models.User
}

// New creates a session store. The store starts Unauthenticated; call Restore
// to pick up a previously persisted session.
func New(api API, creds Credentials, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, creds: creds, logger: logger}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Restore verifies a previously stored token against the backend. A missing,
// expired, or rejected token leaves the store Unauthenticated with the durable
// state cleared; restore failures are never fatal.
func (s *Store) Restore(ctx context.Context) {
	token, err := s.creds.Token()
	if err != nil {
		s.logger.Warn("session: read stored token failed", slog.String("error", err.Error()))
		return
	}
	if token == "" {
		return
	}

	s.mu.Lock()
	s.state = Loading
	s.mu.Unlock()

	if tokenExpired(token) {
		s.logger.Debug("session: stored token expired, clearing")
		s.clearAll()
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("session: stored token rejected", slog.String("error", err.Error()))
		s.clearAll()
		return
	}

	s.mu.Lock()
	s.state = Authenticated
	s.user = &user
	s.mu.Unlock()
	// Refresh the cached profile; the durable copy may be stale.
	if err := s.creds.SetUser(user); err != nil {
		s.logger.Warn("session: cache profile failed", slog.String("error", err.Error()))
	}
}

// Login exchanges credentials for a session. On failure nothing is committed
// and the error propagates.
func (s *Store) Login(ctx context.Context, email, password string) error {
	user, token, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.commit(user, token)
}

// Signup creates a new identity server-side and signs it in. Symmetric to
// Login.
func (s *Store) Signup(ctx context.Context, params remote.SignupParams) error {
	user, token, err := s.api.Signup(ctx, params)
	if err != nil {
		return err
	}
	return s.commit(user, token)
}

// Logout always succeeds: it clears the in-memory identity and the durable
// token. Durable-clear failures are logged, not surfaced.
func (s *Store) Logout() {
	s.mu.Lock()
	s.state = Unauthenticated
	s.user = nil
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("session: clear credentials failed", slog.String("error", err.Error()))
	}
}

// UpdateProfile sends only the provided fields and merges the response into
// the held identity. It is a no-op when Unauthenticated. A failed call leaves
// the prior identity untouched and propagates the error.
func (s *Store) UpdateProfile(ctx context.Context, update remote.ProfileUpdate) error {
	s.mu.Lock()
	authenticated := s.state == Authenticated
	var prior models.User
	if s.user != nil {
		prior = *s.user
	}
	s.mu.Unlock()

	if !authenticated || update.Empty() {
		return nil
	}

	user, err := s.api.UpdateProfile(ctx, update)
	if err != nil {
		return err
	}
	// The profile response omits the creation timestamp; keep the one we have.
	if user.CreatedAt.IsZero() {
		user.CreatedAt = prior.CreatedAt
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	if err := s.creds.SetUser(user); err != nil {
		s.logger.Warn("session: cache profile failed", slog.String("error", err.Error()))
	}
	return nil
}

// commit persists the session durably first, then publishes it in memory, so
// a persistence failure never leaves the two inconsistent.
func (s *Store) commit(user models.User, token string) error {
	if err := s.creds.SetToken(token); err != nil {
		return err
	}
	if err := s.creds.SetUser(user); err != nil {
		s.logger.Warn("session: cache profile failed", slog.String("error", err.Error()))
	}

	s.mu.Lock()
	s.state = Authenticated
	s.user = &user
	s.mu.Unlock()
	return nil
}

func (s *Store) clearAll() {
	s.mu.Lock()
	s.state = Unauthenticated
	s.user = nil
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		s.logger.Warn("session: clear credentials failed", slog.String("error", err.Error()))
	}
}

// tokenExpired inspects the exp claim without verifying the signature; the
// backend remains the authority. Unparseable tokens are passed through so the
// server gets to reject them.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
