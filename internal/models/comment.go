package models

// CommentState tracks whether a comment has been confirmed by the server.
// A comment appended optimistically carries a client-generated temporary ID
// and CommentPending until the submit request succeeds.
type CommentState string

const (
	CommentPending   CommentState = "pending"
	CommentConfirmed CommentState = "confirmed"
)

// JustNow is the display timestamp used for optimistic comments before the
// server has assigned a canonical creation time.
const JustNow = "just now"

// Comment is a single entry in a post's comment thread. CreatedAt is a
// display string, not a canonical timestamp.
type Comment struct {
	ID        string       `json:"_id"`
	PostID    string       `json:"post_id"`
	Author    UserRef      `json:"user_id"`
	Text      string       `json:"comment"`
	CreatedAt string       `json:"createdAt"`
	State     CommentState `json:"-"`
}

// Confirmed reports whether the server has acknowledged this comment.
func (c Comment) Confirmed() bool {
	return c.State == CommentConfirmed
}
