package stubserver

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mannaz/internal/models"
)

const defaultPageSize = 20

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type         string   `json:"type"`
		Title        string   `json:"title"`
		Content      string   `json:"content"`
		Tags         []string `json:"tags"`
		Company      string   `json:"company"`
		Location     string   `json:"location"`
		JobLink      string   `json:"job_link"`
		DocumentName string   `json:"document_name"`
		DocumentURL  string   `json:"document_url"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	switch body.Type {
	case models.PostTypeNote, models.PostTypeJob, models.PostTypeThread:
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid post type"))
		return
	}
	if body.Title == "" || body.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Title and content are required"))
		return
	}

	s.mu.Lock()
	author := s.findUserLocked(userID(r.Context()))
	if author == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	now := time.Now().UTC()
	post := models.Post{
		ID:                   newID(),
		AuthorID:             author.ID,
		AuthorName:           author.Name,
		AuthorUsername:       author.Username,
		AuthorProfilePicture: author.ProfilePicture,
		Type:                 body.Type,
		Title:                body.Title,
		Content:              body.Content,
		Tags:                 body.Tags,
		Company:              body.Company,
		Location:             body.Location,
		JobLink:              body.JobLink,
		DocumentName:         body.DocumentName,
		DocumentURL:          body.DocumentURL,
		Replies:              []models.Reply{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	s.posts = append(s.posts, post)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, post)
}

// listPosts applies search and category server-side, sorts newest first, then
// pages with skip/limit.
func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))
	category := q.Get("category")
	skip := parseIntParam(q.Get("skip"), 0)
	limit := parseIntParam(q.Get("limit"), defaultPageSize)

	s.mu.Lock()
	matched := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		if category != "" && category != "all" && p.Type != category {
			continue
		}
		if search != "" && !postMatches(p, search) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.Unlock()

	sortPostsByCreatedDesc(matched)
	if skip >= len(matched) {
		matched = []models.Post{}
	} else {
		matched = matched[skip:]
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	writeJSON(w, http.StatusOK, matched)
}

// postMatches reports whether the lowercased needle appears in any searched
// field: title, content, author name or username, or a tag.
func postMatches(p models.Post, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle) ||
		strings.Contains(strings.ToLower(p.AuthorName), needle) ||
		strings.Contains(strings.ToLower(p.AuthorUsername), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func (s *Server) addReply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("Content is required"))
		return
	}
	postID := chi.URLParam(r, "postID")

	s.mu.Lock()
	author := s.findUserLocked(userID(r.Context()))
	if author == nil {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	idx := -1
	for i := range s.posts {
		if s.posts[i].ID == postID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, errorBody("Post not found"))
		return
	}
	reply := models.Reply{
		ID:                   newID(),
		AuthorID:             author.ID,
		AuthorName:           author.Name,
		AuthorUsername:       author.Username,
		AuthorProfilePicture: author.ProfilePicture,
		Content:              body.Content,
		CreatedAt:            time.Now().UTC(),
	}
	s.posts[idx].Replies = append(s.posts[idx].Replies, reply)
	s.posts[idx].UpdatedAt = reply.CreatedAt
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, reply)
}

// userProfile returns a public profile with posts_count computed on read.
func (s *Server) userProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")

	s.mu.Lock()
	rec := s.findUserLocked(id)
	var user models.User
	if rec != nil {
		user = rec.User
		for _, p := range s.posts {
			if p.AuthorID == id {
				user.PostsCount++
			}
		}
	}
	s.mu.Unlock()

	if rec == nil {
		writeJSON(w, http.StatusNotFound, errorBody("User not found"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// searchUsers matches name or username, excludes the requester, caps at ten.
func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	needle := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	self := userID(r.Context())

	out := []models.User{}
	if needle != "" {
		s.mu.Lock()
		for _, u := range s.users {
			if u.ID == self {
				continue
			}
			if !strings.Contains(strings.ToLower(u.Name), needle) &&
				!strings.Contains(strings.ToLower(u.Username), needle) {
				continue
			}
			out = append(out, u.User)
			if len(out) == 10 {
				break
			}
		}
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, out)
}

func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
