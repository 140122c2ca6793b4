package feed

import (
	"context"

	"tangle/internal/api"
	"tangle/internal/models"
)

// FetchPosts replaces the entire post list with the server's current
// ordering. The previous list survives a failed fetch. When fetches
// overlap, only the newest issued fetch may install its result.
func (s *Store) FetchPosts(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	s.log.LogStart(ctx, "fetch_posts", nil)
	posts, err := s.api.GetPosts(ctx)

	s.mu.Lock()
	if err != nil {
		// Stale list stays in place; only surface the error string, and
		// only when no newer fetch already installed a fresh list.
		if seq > s.fetchApplied {
			s.lastErr = models.UserMessage(err)
		}
		s.mu.Unlock()
		s.log.LogError(ctx, "fetch_posts", err, nil)
		return err
	}
	if seq <= s.fetchApplied {
		s.mu.Unlock()
		s.log.LogStale(ctx, "fetch_posts", map[string]interface{}{"seq": seq})
		return nil
	}
	s.fetchApplied = seq
	s.posts = posts
	s.lastErr = ""
	count := len(posts)
	s.mu.Unlock()

	s.log.LogEnd(ctx, "fetch_posts", map[string]interface{}{"count": count})
	s.emit(PostsReplaced{Count: count})

	if s.snapshot != nil {
		if err := s.snapshot.SavePosts(ctx, posts); err != nil {
			s.log.LogError(ctx, "snapshot_save", err, nil)
		}
	}
	return nil
}

// ToggleLike optimistically flips the viewer's like before the request
// resolves. A server-returned count overwrites the optimistic one; a
// failed request rolls the optimistic mutation back unless a newer toggle
// or a server-confirmed count already superseded it.
func (s *Store) ToggleLike(ctx context.Context, postID string) error {
	s.mu.Lock()
	i := s.indexOf(postID)
	if i < 0 {
		s.mu.Unlock()
		return models.NewNotFoundError("Post", postID)
	}
	s.likeSeq[postID]++
	seq := s.likeSeq[postID]

	prevLiked := s.posts[i].ViewerHasLiked
	prevCount := s.posts[i].LikeCount
	if prevLiked {
		s.posts[i].ViewerHasLiked = false
		if s.posts[i].LikeCount > 0 {
			s.posts[i].LikeCount--
		}
	} else {
		s.posts[i].ViewerHasLiked = true
		s.posts[i].LikeCount++
	}
	updated := s.posts[i]
	s.mu.Unlock()
	s.emit(PostUpdated{Post: updated})

	res, err := s.api.ToggleLike(ctx, postID)

	s.mu.Lock()
	i = s.indexOf(postID)
	if i < 0 {
		// A refetch replaced the list while the request was in flight;
		// there is nothing left to reconcile.
		s.mu.Unlock()
		if err != nil {
			s.notifier.Error(models.UserMessage(err))
		}
		return err
	}

	if err != nil {
		rolledBack := false
		// Roll back only if this is still the newest toggle and no
		// server-confirmed count landed after the optimistic write.
		if s.likeSeq[postID] == seq && s.likeApplied[postID] < seq {
			s.posts[i].ViewerHasLiked = prevLiked
			s.posts[i].LikeCount = prevCount
			rolledBack = true
		}
		updated = s.posts[i]
		s.mu.Unlock()
		s.log.LogError(ctx, "toggle_like", err, map[string]interface{}{"post_id": postID})
		if rolledBack {
			s.emit(PostUpdated{Post: updated})
		}
		s.notifier.Error(models.UserMessage(err))
		return err
	}

	if res.TotalLikes != nil && seq > s.likeApplied[postID] {
		s.likeApplied[postID] = seq
		count := *res.TotalLikes
		if count < 0 {
			count = 0
		}
		s.posts[i].LikeCount = count
	}
	updated = s.posts[i]
	s.mu.Unlock()
	s.log.LogEnd(ctx, "toggle_like", map[string]interface{}{"post_id": postID})
	s.emit(PostUpdated{Post: updated})
	return nil
}

// NoteCommentAdded bumps a post's comment counter after a confirmed
// submission. The comment content itself lives with the thread
// controller; the store only owns the counter.
func (s *Store) NoteCommentAdded(postID string) {
	s.mu.Lock()
	i := s.indexOf(postID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.posts[i].CommentCount++
	updated := s.posts[i]
	s.mu.Unlock()
	s.emit(PostUpdated{Post: updated})
}

func (s *Store) setCreateStatus(status CreateStatus, errMsg string) {
	s.mu.Lock()
	s.status = status
	s.statusErr = errMsg
	s.mu.Unlock()
	s.emit(CreateStatusChanged{Status: status, Err: errMsg})
}

// CreatePost submits a new post and tracks pending/success/error status
// independently of the post list. The caller refetches on success to
// reconcile; there is no automatic merge of the new post.
func (s *Store) CreatePost(ctx context.Context, in api.CreatePostRequest) error {
	s.setCreateStatus(CreatePending, "")
	s.log.LogStart(ctx, "create_post", map[string]interface{}{"post_type": in.PostType})

	if err := s.api.CreatePost(ctx, in); err != nil {
		s.setCreateStatus(CreateError, models.UserMessage(err))
		s.log.LogError(ctx, "create_post", err, nil)
		s.notifier.Error(models.UserMessage(err))
		return err
	}

	s.setCreateStatus(CreateSuccess, "")
	s.log.LogEnd(ctx, "create_post", nil)
	s.notifier.Success("Post shared with your community")
	return nil
}

// ResetCreateStatus returns the status machine to idle so the composer can
// be reused after either terminal state.
func (s *Store) ResetCreateStatus() {
	s.setCreateStatus(CreateIdle, "")
}
