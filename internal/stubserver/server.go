// Package stubserver implements the consumed REST API in memory so the client
// can be exercised end-to-end without the hosted backend. Behavior mirrors
// the production service: snake_case JSON, {"detail": ...} error bodies,
// bearer-token auth, denormalized author snapshots on posts and replies.
package stubserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/storage"
)

const tokenTTL = 7 * 24 * time.Hour

// userRec is a stored account: the public profile plus the password hash.
type userRec struct {
	models.User
	PasswordHash string
}

type resetRec struct {
	UserID    string
	ExpiresAt time.Time
}

// Server holds all stub state behind one mutex. Entity IDs are ULIDs, so
// creation order and lexicographic order agree just like the production
// ObjectIDs.
type Server struct {
	secret  []byte
	uploads *storage.FS
	logger  *slog.Logger

	mu       sync.Mutex
	users    []*userRec
	posts    []models.Post
	messages []models.Message
	resets   map[string]resetRec
}

// New creates an empty stub server. uploads may be nil when the upload
// endpoints are not needed.
func New(secret string, uploads *storage.FS, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		secret:  []byte(secret),
		uploads: uploads,
		logger:  logger,
		resets:  map[string]resetRec{},
	}
}

// Router mounts every endpoint the client consumes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/auth/signup", s.signup)
	r.Post("/auth/login", s.login)
	r.Post("/auth/forgot-password", s.forgotPassword)
	r.Post("/auth/reset-password", s.resetPassword)

	// Public reads.
	r.Get("/posts", s.listPosts)
	r.Get("/users/{userID}", s.userProfile)
	r.Get("/uploads/{filename}", s.serveUpload)

	// Everything else requires a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/me", s.me)
		r.Put("/auth/profile", s.updateProfile)
		r.Post("/posts", s.createPost)
		r.Post("/posts/{postID}/replies", s.addReply)
		r.Get("/users/search", s.searchUsers)
		r.Get("/messages/conversations", s.conversations)
		r.Get("/messages/with/{userID}", s.messagesWith)
		r.Post("/messages/send", s.sendMessage)
		r.Post("/upload/image", s.uploadImage)
		r.Post("/upload/document", s.uploadDocument)
	})

	return r
}

// ctxKey is the context key type for the authenticated user ID.
type ctxKey struct{}

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// userID returns the authenticated user ID placed by requireAuth.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// requireAuth validates the bearer token and stashes the subject user ID in
// the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errorBody("Not authenticated"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		claims := jwt.MapClaims{}
		_, err := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})).
			ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return s.secret, nil })
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("Could not validate credentials"))
			return
		}
		sub, err := claims.GetSubject()
		if err != nil || s.findUser(sub) == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("Could not validate credentials"))
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), sub)))
	})
}

// issueToken signs an HS256 access token for the user.
func (s *Server) issueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// findUser returns the stored account by ID; caller must hold no lock
// assumptions, the method locks internally.
func (s *Server) findUser(id string) *userRec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUserLocked(id)
}

func (s *Server) findUserLocked(id string) *userRec {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) findUserByEmailLocked(email string) *userRec {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func newID() string {
	return ulid.Make().String()
}

// hashPassword is a stub-only digest; the real backend uses a proper KDF.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// errorBody matches the backend's error envelope.
func errorBody(detail string) map[string]string {
	return map[string]string{"detail": detail}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid JSON body"))
		return false
	}
	return true
}

// sortPostsByCreatedDesc orders newest first, matching the backend's
// created_at sort.
func sortPostsByCreatedDesc(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
