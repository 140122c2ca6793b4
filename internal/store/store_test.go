package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangle/internal/models"
)

func openTestStore(t *testing.T) *FeedStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	return s
}

func TestFeedStore_RoundTrip(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	posts := []models.Post{
		{ID: "p2", Description: "second", LikeCount: 3, CreatedAt: created},
		{ID: "p1", Description: "first", CommentCount: 7, ViewerHasLiked: true, CreatedAt: created},
	}
	require.NoError(t, s.SavePosts(ctx, posts))

	loaded, err := s.LoadPosts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Saved order is preserved, not re-sorted.
	assert.Equal(t, "p2", loaded[0].ID)
	assert.Equal(t, "p1", loaded[1].ID)
	assert.Equal(t, 3, loaded[0].LikeCount)
	assert.True(t, loaded[1].ViewerHasLiked)
}

func TestFeedStore_SaveReplacesSnapshot(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePosts(ctx, []models.Post{{ID: "a"}, {ID: "b"}, {ID: "c"}}))
	require.NoError(t, s.SavePosts(ctx, []models.Post{{ID: "d"}}))

	loaded, err := s.LoadPosts(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "d", loaded[0].ID)
}

func TestFeedStore_EmptySnapshot(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	loaded, err := s.LoadPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// Saving an empty list clears the snapshot.
	require.NoError(t, s.SavePosts(context.Background(), []models.Post{{ID: "a"}}))
	require.NoError(t, s.SavePosts(context.Background(), nil))
	loaded, err = s.LoadPosts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
