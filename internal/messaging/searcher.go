package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/starford/mannaz/internal/models"
)

// DefaultSearchDebounce is the quiet period a keystroke sequence must observe
// before a user search is dispatched.
const DefaultSearchDebounce = 300 * time.Millisecond

// Searcher debounces user search and makes completion order deterministic:
// every dispatch gets a monotonically increasing sequence number and a
// response is delivered only while its sequence is still the latest, so a
// slow early response can never overwrite a fresher result.
type Searcher struct {
	store *Store
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending pendingSearch
}

type pendingSearch struct {
	ctx     context.Context
	query   string
	deliver func(query string, users []models.User)
}

// NewSearcher creates a debounced searcher over the store. A non-positive
// delay falls back to DefaultSearchDebounce.
func NewSearcher(store *Store, delay time.Duration) *Searcher {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &Searcher{store: store, delay: delay}
}

// Query records the latest keystroke state and (re)arms the debounce timer.
// Only the final query of a rapid sequence is dispatched. deliver is invoked
// from the dispatch goroutine.
func (s *Searcher) Query(ctx context.Context, query string, deliver func(query string, users []models.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = pendingSearch{ctx: ctx, query: query, deliver: deliver}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.delay, s.fire)
		return
	}
	s.timer.Reset(s.delay)
}

// Stop cancels any pending dispatch. In-flight responses are still subject to
// the sequence guard.
func (s *Searcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Searcher) fire() {
	s.mu.Lock()
	req := s.pending
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if req.ctx == nil {
		req.ctx = context.Background()
	}
	users := s.store.SearchUsers(req.ctx, req.query)

	s.mu.Lock()
	stale := seq != s.seq
	s.mu.Unlock()
	if stale || req.deliver == nil {
		return
	}
	req.deliver(req.query, users)
}
