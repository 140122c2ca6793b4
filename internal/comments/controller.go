// Package comments manages the lifecycle of a single post's comment
// thread, decoupled from the feed store. The thread is fetched when the
// overlay opens and discarded when it closes; nothing is cached across
// opens.
package comments

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"tangle/internal/models"
	"tangle/internal/notify"
	"tangle/internal/observability"
)

// API is the slice of the remote client the controller depends on.
type API interface {
	GetComments(ctx context.Context, postID string) ([]models.Comment, error)
	AddComment(ctx context.Context, postID, text string) error
}

// State is the overlay lifecycle state.
type State string

const (
	StateClosed  State = "closed"
	StateOpening State = "opening"
	StateLoaded  State = "loaded"
)

// Controller owns the currently-open thread. The epoch counter orders
// Open/Close transitions: a fetch or submit response carrying a stale
// epoch is discarded, so the last-opened post always wins.
type Controller struct {
	mu       sync.Mutex
	api      API
	state    State
	postID   string
	epoch    uint64
	comments []models.Comment
	loading  bool

	viewer      func() (models.UserRef, bool)
	onConfirmed func(postID string)
	onClose     func()
	notifier    *notify.Center
	log         *observability.OpLogger
}

// Option configures a Controller.
type Option func(*Controller)

// WithViewer supplies the current viewer snapshot used as the author of
// optimistic comments.
func WithViewer(fn func() (models.UserRef, bool)) Option {
	return func(c *Controller) { c.viewer = fn }
}

// WithConfirmedHook registers the callback fired once per
// server-confirmed comment, regardless of overlay state. The feed store's
// counter bump hangs off this.
func WithConfirmedHook(fn func(postID string)) Option {
	return func(c *Controller) { c.onConfirmed = fn }
}

// WithCloseHook registers the callback invoked after Close clears the
// thread.
func WithCloseHook(fn func()) Option {
	return func(c *Controller) { c.onClose = fn }
}

// WithNotifier wires the toast/banner notification center.
func WithNotifier(center *notify.Center) Option {
	return func(c *Controller) { c.notifier = center }
}

// NewController builds a closed controller backed by the given API client.
func NewController(client API, opts ...Option) *Controller {
	c := &Controller{
		api:   client,
		state: StateClosed,
		log:   observability.NewOpLogger("comments"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current thread state for rendering.
func (c *Controller) Snapshot() (state State, postID string, comments []models.Comment, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Comment, len(c.comments))
	copy(out, c.comments)
	return c.state, c.postID, out, c.loading
}

// Open starts the thread for postID and fetches its comments. An empty
// postID is a silent no-op (stale trigger guard). Opening a different post
// while a fetch is in flight supersedes it; the late response is
// discarded.
func (c *Controller) Open(ctx context.Context, postID string) error {
	if postID == "" {
		return nil
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.state = StateOpening
	c.postID = postID
	c.comments = nil
	c.loading = true
	c.mu.Unlock()

	c.log.LogStart(ctx, "get_comments", map[string]interface{}{"post_id": postID})
	fetched, err := c.api.GetComments(ctx, postID)

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.log.LogStale(ctx, "get_comments", map[string]interface{}{"post_id": postID})
		return nil
	}
	if err != nil {
		// The overlay stays open with an empty thread; the user can pull
		// to retry by reopening.
		c.state = StateLoaded
		c.loading = false
		c.mu.Unlock()
		c.log.LogError(ctx, "get_comments", err, map[string]interface{}{"post_id": postID})
		return err
	}
	c.state = StateLoaded
	// A comment submitted while this fetch was in flight is already on
	// screen as a pending entry; installing the server list must not
	// wipe it.
	var pending []models.Comment
	for _, existing := range c.comments {
		if existing.State == models.CommentPending {
			pending = append(pending, existing)
		}
	}
	c.comments = append(fetched, pending...)
	c.loading = false
	c.mu.Unlock()
	c.log.LogEnd(ctx, "get_comments", map[string]interface{}{"post_id": postID, "count": len(fetched)})
	return nil
}

// Submit posts a comment on the open thread. Empty or whitespace-only
// text is rejected locally with no network call and no state change. The
// comment is appended optimistically with a temporary id and marked
// confirmed in place once the server accepts it; on failure the pending
// entry is removed.
func (c *Controller) Submit(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.NewValidationError("Comment cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > models.MaxDescriptionLen {
		return models.NewValidationError("Comment is too long")
	}

	c.mu.Lock()
	if c.postID == "" || c.state == StateClosed {
		c.mu.Unlock()
		return models.NewValidationError("No open comment thread")
	}
	postID := c.postID
	epoch := c.epoch

	author := models.UserRef{Name: "You"}
	if c.viewer != nil {
		if ref, ok := c.viewer(); ok {
			author = ref
		}
	}
	pending := models.Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Author:    author,
		Text:      trimmed,
		CreatedAt: models.JustNow,
		State:     models.CommentPending,
	}
	c.comments = append(c.comments, pending)
	c.mu.Unlock()

	c.log.LogStart(ctx, "add_comment", map[string]interface{}{"post_id": postID})
	err := c.api.AddComment(ctx, postID, trimmed)

	c.mu.Lock()
	if err != nil {
		if epoch == c.epoch {
			c.removeLocked(pending.ID)
		}
		c.mu.Unlock()
		c.log.LogError(ctx, "add_comment", err, map[string]interface{}{"post_id": postID})
		c.notifier.Error(models.UserMessage(err))
		return err
	}
	if epoch == c.epoch {
		for i := range c.comments {
			if c.comments[i].ID == pending.ID {
				// The server does not return the canonical comment, so
				// the temporary id is retained for the session; only the
				// state transition is recorded.
				c.comments[i].State = models.CommentConfirmed
				break
			}
		}
	}
	c.mu.Unlock()

	c.log.LogEnd(ctx, "add_comment", map[string]interface{}{"post_id": postID})
	// The feed counter bumps for the posted-to thread even if the user
	// has since closed the overlay or switched posts.
	if c.onConfirmed != nil {
		c.onConfirmed(postID)
	}
	return nil
}

func (c *Controller) removeLocked(commentID string) {
	for i := range c.comments {
		if c.comments[i].ID == commentID {
			c.comments = append(c.comments[:i], c.comments[i+1:]...)
			return
		}
	}
}

// Close discards the thread and invokes the external close callback. The
// epoch bump invalidates any in-flight fetch for the closed thread.
func (c *Controller) Close() {
	c.mu.Lock()
	c.epoch++
	c.state = StateClosed
	c.postID = ""
	c.comments = nil
	c.loading = false
	c.mu.Unlock()
	if c.onClose != nil {
		c.onClose()
	}
}
