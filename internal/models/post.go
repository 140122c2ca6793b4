// Package models contains data structures for the Tangle client's domain.
package models

import "time"

// PostType classifies a feed post.
type PostType string

const (
	PostTypeDiscussion   PostType = "Discussion"
	PostTypeEvent        PostType = "Event"
	PostTypeVote         PostType = "Vote"
	PostTypeIntroduction PostType = "Introduction"
	PostTypeAnnouncement PostType = "Announcement"
)

// ValidPostType reports whether t is one of the known post types.
func ValidPostType(t PostType) bool {
	switch t {
	case PostTypeDiscussion, PostTypeEvent, PostTypeVote, PostTypeIntroduction, PostTypeAnnouncement:
		return true
	}
	return false
}

// MaxDescriptionLen caps post and comment text.
const MaxDescriptionLen = 500

// MaxPostImages caps the number of images attached to a single post.
const MaxPostImages = 4

// UserRef is a denormalized author snapshot carried on posts and comments.
type UserRef struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"profile_image"`
}

// Post represents a single feed entry as served by the Tangle API.
// Counters are server-authoritative; ViewerHasLiked is mutated
// optimistically on the client and reconciled with server responses.
type Post struct {
	ID             string     `json:"_id"`
	Author         UserRef    `json:"user_id"`
	Description    string     `json:"desc"`
	PostType       PostType   `json:"post_type"`
	Images         []string   `json:"image"`
	Location       string     `json:"location"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	EventDate      *time.Time `json:"event_date,omitempty"`
	Tags           []string   `json:"tags"`
	ViewCount      int        `json:"total_views"`
	LikeCount      int        `json:"total_likes"`
	CommentCount   int        `json:"total_comments"`
	ViewerHasLiked bool       `json:"is_liked"`
	CreatedAt      time.Time  `json:"createdAt"`
}
