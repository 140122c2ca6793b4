// Package feed holds the canonical, ordered post list for the current
// viewer and the mutation operations over it. Mutations apply
// optimistically so the UI feels instantaneous; server responses reconcile
// or roll back the local state.
package feed

import (
	"context"
	"sync"

	"tangle/internal/api"
	"tangle/internal/models"
	"tangle/internal/notify"
	"tangle/internal/observability"
)

// API is the slice of the remote client the store depends on.
type API interface {
	GetPosts(ctx context.Context) ([]models.Post, error)
	ToggleLike(ctx context.Context, postID string) (*api.LikeResult, error)
	CreatePost(ctx context.Context, in api.CreatePostRequest) error
}

// Snapshot persists the post list between runs so the feed can render
// before the first fetch resolves.
type Snapshot interface {
	SavePosts(ctx context.Context, posts []models.Post) error
	LoadPosts(ctx context.Context) ([]models.Post, error)
}

// CreateStatus is the create-post submission state.
type CreateStatus string

const (
	CreateIdle    CreateStatus = "idle"
	CreatePending CreateStatus = "pending"
	CreateSuccess CreateStatus = "success"
	CreateError   CreateStatus = "error"
)

// Store is the canonical post list plus mutation state. All fields are
// guarded by mu; events are emitted outside the lock.
type Store struct {
	mu    sync.Mutex
	api   API
	posts []models.Post

	// fetchSeq numbers issued fetches; fetchApplied records the newest
	// fetch whose result was installed. A response from a superseded
	// fetch is discarded.
	fetchSeq     uint64
	fetchApplied uint64
	lastErr      string

	// likeSeq numbers toggle requests per post; likeApplied records the
	// newest request whose server-confirmed count was applied, so the
	// last confirmed value wins under concurrent toggles.
	likeSeq     map[string]uint64
	likeApplied map[string]uint64

	status    CreateStatus
	statusErr string

	subs     []func(Event)
	snapshot Snapshot
	notifier *notify.Center
	log      *observability.OpLogger
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshot wires an offline snapshot store.
func WithSnapshot(s Snapshot) Option {
	return func(st *Store) { st.snapshot = s }
}

// WithNotifier wires the toast/banner notification center.
func WithNotifier(c *notify.Center) Option {
	return func(st *Store) { st.notifier = c }
}

// NewStore builds an empty feed store backed by the given API client.
func NewStore(client API, opts ...Option) *Store {
	s := &Store{
		api:         client,
		likeSeq:     make(map[string]uint64),
		likeApplied: make(map[string]uint64),
		status:      CreateIdle,
		log:         observability.NewOpLogger("feed"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for store events.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) emit(ev Event) {
	s.mu.Lock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Posts returns a copy of the current list in canonical order.
func (s *Store) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Post returns a copy of one post by id.
func (s *Store) Post(postID string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(postID); i >= 0 {
		return s.posts[i], true
	}
	return models.Post{}, false
}

// LastError returns the most recent fetch error message, or "".
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// CreateStatus returns the current create-post status and, for
// CreateError, the surfaced message.
func (s *Store) CreateStatus() (CreateStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusErr
}

func (s *Store) indexOf(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

// LoadCached seeds the list from the offline snapshot. It is a no-op
// without a snapshot store or once a fetch has already installed a list.
func (s *Store) LoadCached(ctx context.Context) error {
	if s.snapshot == nil {
		return nil
	}
	cached, err := s.snapshot.LoadPosts(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.fetchApplied != 0 || len(cached) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.posts = cached
	count := len(cached)
	s.mu.Unlock()
	s.emit(PostsReplaced{Count: count})
	return nil
}
