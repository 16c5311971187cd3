// Package feed mirrors the post list locally and maintains a filtered view
// over it. allPosts is the authoritative mirror; visiblePosts is what the
// surface renders.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/mannaz/internal/models"
	"github.com/starford/mannaz/internal/remote"
)

// CategoryAll is the category value that means "no category filter".
const CategoryAll = "all"

// API is the slice of the remote client the feed store depends on.
type API interface {
	ListPosts(ctx context.Context, params remote.ListPostsParams) ([]models.Post, error)
	CreatePost(ctx context.Context, draft remote.PostDraft) (models.Post, error)
	AddReply(ctx context.Context, postID, content string) (models.Reply, error)
}

// Snapshot is the externally visible feed state. FilterErr is the outcome of
// the last non-trivial filter; filtering is a best-effort read path.
type Snapshot struct {
	All       []models.Post
	Visible   []models.Post
	FilterErr error
}

// Store is the feed state container.
type Store struct {
	api    API
	logger *slog.Logger

	mu        sync.Mutex
	all       []models.Post
	visible   []models.Post
	filterErr error
}

// New creates an empty feed store.
func New(api API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, logger: logger}
}

// Snapshot returns copies of both lists.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		All:       append([]models.Post(nil), s.all...),
		Visible:   append([]models.Post(nil), s.visible...),
		FilterErr: s.filterErr,
	}
}

// LoadPosts fetches the full unfiltered list and replaces both the mirror and
// the visible view.
func (s *Store) LoadPosts(ctx context.Context) error {
	posts, err := s.api.ListPosts(ctx, remote.ListPostsParams{})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.all = posts
	s.visible = append([]models.Post(nil), posts...)
	s.filterErr = nil
	s.mu.Unlock()
	return nil
}

// CreatePost submits the draft and, once the server confirms, prepends the
// stored post to both lists. The draft is sent as-is: required-field
// validation belongs to the surface, not the store. On failure nothing is
// mutated.
func (s *Store) CreatePost(ctx context.Context, draft remote.PostDraft) (models.Post, error) {
	post, err := s.api.CreatePost(ctx, draft)
	if err != nil {
		return models.Post{}, err
	}
	if post.Replies == nil {
		post.Replies = []models.Reply{}
	}

	s.mu.Lock()
	s.all = append([]models.Post{post}, s.all...)
	s.visible = append([]models.Post{post}, s.visible...)
	s.mu.Unlock()
	return post, nil
}

// AddReply appends the confirmed reply to the matching post in both lists and
// refreshes that post's updated timestamp. There is no optimistic append.
func (s *Store) AddReply(ctx context.Context, postID, content string) (models.Reply, error) {
	reply, err := s.api.AddReply(ctx, postID, content)
	if err != nil {
		return models.Reply{}, err
	}

	s.mu.Lock()
	appendReply(s.all, postID, reply)
	appendReply(s.visible, postID, reply)
	s.mu.Unlock()
	return reply, nil
}

// Filter updates the visible view. A trivial filter (blank query, category
// empty or "all") resets visible to the full mirror without touching the
// network. Any non-trivial filter is delegated to the server and the visible
// view becomes exactly the returned set; a failed server filter empties the
// view and records the error.
func (s *Store) Filter(ctx context.Context, query, category string) {
	query = strings.TrimSpace(query)
	if query == "" && (category == "" || category == CategoryAll) {
		s.mu.Lock()
		s.visible = append([]models.Post(nil), s.all...)
		s.filterErr = nil
		s.mu.Unlock()
		return
	}

	posts, err := s.api.ListPosts(ctx, remote.ListPostsParams{Search: query, Category: category})
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Warn("feed: server filter failed",
			slog.String("query", query),
			slog.String("category", category),
			slog.String("error", err.Error()))
		s.visible = []models.Post{}
		s.filterErr = err
		return
	}
	s.visible = posts
	s.filterErr = nil
}

// appendReply rebuilds the reply slice of the matching post so the two lists
// never alias each other's backing arrays.
func appendReply(posts []models.Post, postID string, reply models.Reply) {
	for i := range posts {
		if posts[i].ID != postID {
			continue
		}
		replies := make([]models.Reply, 0, len(posts[i].Replies)+1)
		replies = append(replies, posts[i].Replies...)
		posts[i].Replies = append(replies, reply)
		posts[i].UpdatedAt = time.Now()
		return
	}
}

// SplitTags turns comma-separated user input into a tag list, trimming
// whitespace and dropping blanks.
func SplitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
