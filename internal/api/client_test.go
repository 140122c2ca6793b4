package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangle/internal/api"
	"tangle/internal/config"
	"tangle/internal/media"
	"tangle/internal/models"
	"tangle/internal/session"
	"tangle/internal/testutil"
)

func newTestClient(t *testing.T, fake *testutil.FakeTangle, sess *session.Session) *api.Client {
	t.Helper()
	cfg := &config.Config{
		APIBaseURL:        fake.Start(t),
		RequestTimeoutSec: 5,
	}
	return api.NewClient(cfg, sess)
}

func login(t *testing.T, client *api.Client, sess *session.Session, email, password string) models.User {
	t.Helper()
	res, err := client.Login(context.Background(), email, password)
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	sess.SetCredentials(res.Token, res.User)
	return res.User
}

func TestLoginIssuesSession(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.SeedUser("ira@tangle.test", "hunter2", "Ira")
	sess := session.New()
	client := newTestClient(t, fake, sess)

	user := login(t, client, sess, "ira@tangle.test", "hunter2")

	assert.Equal(t, "Ira", user.Name)
	assert.True(t, sess.Authenticated())
}

func TestLoginRejectsBadPassword(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.SeedUser("ira@tangle.test", "hunter2", "Ira")
	client := newTestClient(t, fake, session.New())

	_, err := client.Login(context.Background(), "ira@tangle.test", "wrong")
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestGetPostsDecodesFeed(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	seeded := fake.SeedPosts(3)
	client := newTestClient(t, fake, session.New())

	posts, err := client.GetPosts(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, seeded[0].ID, posts[0].ID)
	assert.Equal(t, seeded[0].Author.Name, posts[0].Author.Name)
	assert.Equal(t, seeded[0].LikeCount, posts[0].LikeCount)
}

func TestToggleLikeReturnsServerCount(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.SeedUser("ira@tangle.test", "hunter2", "Ira")
	post := fake.SeedPosts(1)[0]
	sess := session.New()
	client := newTestClient(t, fake, sess)
	login(t, client, sess, "ira@tangle.test", "hunter2")

	res, err := client.ToggleLike(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, res.TotalLikes)
	assert.Equal(t, post.LikeCount+1, *res.TotalLikes)

	// The same viewer toggling again removes the like.
	res, err = client.ToggleLike(context.Background(), post.ID)
	require.NoError(t, err)
	require.NotNil(t, res.TotalLikes)
	assert.Equal(t, post.LikeCount, *res.TotalLikes)
}

func TestToggleLikeRequiresAuth(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	post := fake.SeedPosts(1)[0]
	client := newTestClient(t, fake, session.New())

	_, err := client.ToggleLike(context.Background(), post.ID)
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
}

func TestCommentRoundTrip(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.SeedUser("ira@tangle.test", "hunter2", "Ira")
	post := fake.SeedPosts(1)[0]
	fake.SeedComments(post.ID, "first!")
	sess := session.New()
	client := newTestClient(t, fake, sess)
	login(t, client, sess, "ira@tangle.test", "hunter2")

	require.NoError(t, client.AddComment(context.Background(), post.ID, "lovely evening"))

	thread, err := client.GetComments(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "lovely evening", thread[1].Text)
	assert.Equal(t, "Ira", thread[1].Author.Name)
	for _, comment := range thread {
		assert.Equal(t, post.ID, comment.PostID)
		assert.Equal(t, models.CommentConfirmed, comment.State)
	}
}

func TestServerMessageSurfacesVerbatim(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.FailNext("/get-posts", fiber.StatusInternalServerError, "feed temporarily unavailable")
	client := newTestClient(t, fake, session.New())

	_, err := client.GetPosts(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.CodeServer, models.ErrorCode(err))
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "feed temporarily unavailable", appErr.Message)
}

func TestUnreachableServerIsTransportError(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		APIBaseURL:        "http://127.0.0.1:1",
		RequestTimeoutSec: 1,
	}
	client := api.NewClient(cfg, nil)

	_, err := client.GetPosts(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.CodeTransport, models.ErrorCode(err))
}

func TestCreatePostMultipart(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.SeedUser("ira@tangle.test", "hunter2", "Ira")
	sess := session.New()
	client := newTestClient(t, fake, sess)
	user := login(t, client, sess, "ira@tangle.test", "hunter2")

	when := time.Date(2026, 9, 12, 18, 30, 0, 0, time.UTC)
	err := client.CreatePost(context.Background(), api.CreatePostRequest{
		Description: "Block party this weekend #party #block7",
		PostType:    models.PostTypeEvent,
		UserID:      user.ID,
		Location:    "mohali",
		Tags:        []string{"party", "block7"},
		EventDate:   &when,
		Images: []media.Attachment{
			{Name: "post_0.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
			{Name: "post_1.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff}},
		},
	})
	require.NoError(t, err)

	created, ok := fake.LastPost()
	require.True(t, ok)
	assert.Equal(t, "Block party this weekend #party #block7", created.Description)
	assert.Equal(t, models.PostTypeEvent, created.PostType)
	assert.Equal(t, user.ID, created.Author.ID)
	assert.Equal(t, []string{"party", "block7"}, created.Tags)
	require.NotNil(t, created.EventDate)
	assert.True(t, when.Equal(*created.EventDate))

	uploads := fake.Uploads()
	require.Len(t, uploads, 2)
	assert.Equal(t, "post_0.jpg", uploads[0].Filename)
	assert.Equal(t, "image/jpeg", uploads[0].ContentType)
	assert.Equal(t, "post_1.jpg", uploads[1].Filename)
}

func TestRegistrationFlow(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	client := newTestClient(t, fake, session.New())
	ctx := context.Background()

	require.NoError(t, client.RegisterOTP(ctx, "new@tangle.test"))

	err := client.VerifyRegisterOTP(ctx, "new@tangle.test", "0000")
	require.Error(t, err)

	require.NoError(t, client.VerifyRegisterOTP(ctx, "new@tangle.test", "4242"))

	res, err := client.Register(ctx, api.RegisterProfile{
		Name:     "Noor",
		Email:    "new@tangle.test",
		Password: "sekrit",
		Society:  "Sunrise Apartments",
		Block:    "B",
		Emoji:    "🐙",
		Interest: []string{"gardening"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Noor", res.User.Name)
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	fake.SeedUser("ira@tangle.test", "hunter2", "Ira")
	sess := session.New()
	client := newTestClient(t, fake, sess)
	ctx := context.Background()

	require.NoError(t, client.ForgotPassword(ctx, "ira@tangle.test"))
	require.NoError(t, client.ResetPassword(ctx, "ira@tangle.test", "4242", "newpass"))

	_, err := client.Login(ctx, "ira@tangle.test", "hunter2")
	require.Error(t, err)
	login(t, client, sess, "ira@tangle.test", "newpass")
}

func TestGetAvatars(t *testing.T) {
	t.Parallel()

	fake := testutil.NewFakeTangle()
	client := newTestClient(t, fake, session.New())

	avatars, err := client.GetAvatars(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, avatars)
}
