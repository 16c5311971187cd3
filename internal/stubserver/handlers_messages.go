package stubserver

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mannaz/internal/models"
)

// conversationID is deterministic for a pair of users regardless of who
// messaged first.
func conversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// conversations derives the inbox from the message table: one row per
// counterpart, newest-last-message first, unread counting only messages the
// counterpart sent that the requester has not opened.
func (s *Server) conversations(w http.ResponseWriter, r *http.Request) {
	self := userID(r.Context())

	s.mu.Lock()
	latest := map[string]models.Message{}
	unread := map[string]int{}
	for _, m := range s.messages {
		var other string
		switch self {
		case m.SenderID:
			other = m.RecipientID
		case m.RecipientID:
			other = m.SenderID
		default:
			continue
		}
		if cur, ok := latest[other]; !ok || m.CreatedAt.After(cur.CreatedAt) {
			latest[other] = m
		}
		if m.SenderID == other && !m.Read {
			unread[other]++
		}
	}

	out := make([]models.Conversation, 0, len(latest))
	for other, last := range latest {
		rec := s.findUserLocked(other)
		if rec == nil {
			continue
		}
		out = append(out, models.Conversation{
			ID: conversationID(self, other),
			Participant: models.Participant{
				ID:             rec.ID,
				Name:           rec.Name,
				Username:       rec.Username,
				ProfilePicture: rec.ProfilePicture,
			},
			LastMessage: models.LastMessage{
				ID:        last.ID,
				Content:   last.Content,
				SenderID:  last.SenderID,
				CreatedAt: last.CreatedAt,
			},
			UnreadCount: unread[other],
		})
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	writeJSON(w, http.StatusOK, out)
}

// messagesWith returns the full history with one counterpart oldest first and
// marks the counterpart's messages as read, which is what zeroes the unread
// count on the next inbox load.
func (s *Server) messagesWith(w http.ResponseWriter, r *http.Request) {
	self := userID(r.Context())
	other := chi.URLParam(r, "userID")

	s.mu.Lock()
	if s.findUserLocked(other) == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	out := []models.Message{}
	for i := range s.messages {
		m := &s.messages[i]
		between := (m.SenderID == self && m.RecipientID == other) ||
			(m.SenderID == other && m.RecipientID == self)
		if !between {
			continue
		}
		if m.SenderID == other {
			m.Read = true
		}
		out = append(out, *m)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RecipientID string `json:"recipient_id"`
		Content     string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Content is required"))
		return
	}
	self := userID(r.Context())
	if body.RecipientID == self {
		writeJSON(w, http.StatusBadRequest, errorBody("Cannot message yourself"))
		return
	}

	s.mu.Lock()
	if s.findUserLocked(body.RecipientID) == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errorBody("Recipient not found"))
		return
	}
	msg := models.Message{
		ID:          newID(),
		SenderID:    self,
		RecipientID: body.RecipientID,
		Content:     body.Content,
		CreatedAt:   time.Now().UTC(),
		Read:        false,
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, msg)
}
