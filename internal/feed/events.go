package feed

import "tangle/internal/models"

// Event is a typed state-change notification emitted by the store.
// Subscribers switch on the concrete type; there is no global
// string-keyed event bus.
type Event interface{ feedEvent() }

// PostsReplaced fires after a fetch (or cache load) installs a new list.
type PostsReplaced struct {
	Count int
}

// PostUpdated fires when a single post's counters or like state change.
type PostUpdated struct {
	Post models.Post
}

// CreateStatusChanged fires on every create-post status transition.
type CreateStatusChanged struct {
	Status CreateStatus
	Err    string
}

func (PostsReplaced) feedEvent()       {}
func (PostUpdated) feedEvent()         {}
func (CreateStatusChanged) feedEvent() {}
