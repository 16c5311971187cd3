package stubserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starford/mannaz/internal/models"
)

// authResponse matches the backend's login/signup envelope.
type authResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Bio      string `json:"bio"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Name == "" || body.Username == "" || body.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Name, username and email are required"))
		return
	}
	if len(body.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, errorBody("Password must be at least 8 characters"))
		return
	}

	s.mu.Lock()
	if s.findUserByEmailLocked(body.Email) != nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, errorBody("Email already registered"))
		return
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Username, body.Username) {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, errorBody("Username already taken"))
			return
		}
	}
	rec := &userRec{
		User: models.User{
			ID:        newID(),
			Name:      body.Name,
			Username:  body.Username,
			Email:     body.Email,
			Bio:       body.Bio,
			CreatedAt: time.Now().UTC(),
		},
		PasswordHash: hashPassword(body.Password),
	}
	s.users = append(s.users, rec)
	user := rec.User
	s.mu.Unlock()

	token, err := s.issueToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("Could not issue token"))
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	rec := s.findUserByEmailLocked(body.Email)
	var user models.User
	ok := rec != nil && rec.PasswordHash == hashPassword(body.Password)
	if ok {
		user = rec.User
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("Incorrect email or password"))
		return
	}
	token, err := s.issueToken(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("Could not issue token"))
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, TokenType: "bearer", User: user})
}

// forgotPassword answers identically whether or not the address is registered.
// The issued token is only surfaced through the log; there is no mailer here.
func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	if rec := s.findUserByEmailLocked(body.Email); rec != nil {
		token := newID()
		s.resets[token] = resetRec{UserID: rec.ID, ExpiresAt: time.Now().Add(time.Hour)}
		s.logger.Info("password reset token issued",
			slog.String("email", body.Email),
			slog.String("token", token))
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the email exists, a reset link has been sent",
	})
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if len(body.NewPassword) < 8 {
		writeJSON(w, http.StatusBadRequest, errorBody("Password must be at least 8 characters"))
		return
	}

	s.mu.Lock()
	rec, ok := s.resets[body.Token]
	if ok && time.Now().Before(rec.ExpiresAt) {
		if u := s.findUserLocked(rec.UserID); u != nil {
			u.PasswordHash = hashPassword(body.NewPassword)
		}
		delete(s.resets, body.Token)
	} else {
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid or expired reset token"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec := s.findUserLocked(userID(r.Context()))
	var user models.User
	if rec != nil {
		user = rec.User
	}
	s.mu.Unlock()

	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// updateProfile merges only the provided fields into the stored profile.
// Author snapshots on existing posts and replies are left as they were.
func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           *string `json:"name"`
		Username       *string `json:"username"`
		Email          *string `json:"email"`
		Bio            *string `json:"bio"`
		ProfilePicture *string `json:"profile_picture"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	rec := s.findUserLocked(userID(r.Context()))
	if rec == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	if body.Email != nil {
		if other := s.findUserByEmailLocked(*body.Email); other != nil && other.ID != rec.ID {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, errorBody("Email already registered"))
			return
		}
		rec.Email = *body.Email
	}
	if body.Username != nil {
		for _, u := range s.users {
			if u.ID != rec.ID && strings.EqualFold(u.Username, *body.Username) {
				s.mu.Unlock()
				writeJSON(w, http.StatusBadRequest, errorBody("Username already taken"))
				return
			}
		}
		rec.Username = *body.Username
	}
	if body.Name != nil {
		rec.Name = *body.Name
	}
	if body.Bio != nil {
		rec.Bio = *body.Bio
	}
	if body.ProfilePicture != nil {
		rec.ProfilePicture = *body.ProfilePicture
	}
	user := rec.User
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}
