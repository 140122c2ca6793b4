package composer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangle/internal/api"
	"tangle/internal/models"
)

type submitterStub struct {
	createPostFn func(context.Context, api.CreatePostRequest) error
}

func (s *submitterStub) CreatePost(ctx context.Context, in api.CreatePostRequest) error {
	return s.createPostFn(ctx, in)
}

type identityStub struct {
	userID string
}

func (s *identityStub) UserID() string { return s.userID }

type pickerStub struct {
	pickFn func(context.Context) (string, error)
	calls  int
}

func (s *pickerStub) Pick(ctx context.Context) (string, error) {
	s.calls++
	return s.pickFn(ctx)
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func pngReader(t *testing.T) FileReader {
	data := tinyPNG(t)
	return func(string) ([]byte, error) { return data, nil }
}

func acceptAll() *submitterStub {
	return &submitterStub{createPostFn: func(context.Context, api.CreatePostRequest) error { return nil }}
}

func TestHashtags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"TangleTogether", "CommunityVibes"},
		Hashtags("met the neighbours! #TangleTogether #CommunityVibes #TangleTogether"))
	assert.Empty(t, Hashtags("no tags here"))
}

func TestComposer_ValidationOrdering(t *testing.T) {
	t.Parallel()

	// Unauthenticated beats empty text: the auth check always runs first.
	c := New(acceptAll(), &identityStub{userID: ""}, pngReader(t))
	err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))
	assert.Equal(t, "Please log in to share a post", models.UserMessage(err))

	// Authenticated, empty text.
	c = New(acceptAll(), &identityStub{userID: "u1"}, pngReader(t))
	err = c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Please write something to share", models.UserMessage(err))

	// Text but no image.
	c.SetText("hello block C")
	err = c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Please attach at least one photo", models.UserMessage(err))
}

func TestComposer_ImageCap(t *testing.T) {
	t.Parallel()

	picker := &pickerStub{pickFn: func(context.Context) (string, error) { return "file:///tmp/a.jpg", nil }}
	c := New(acceptAll(), &identityStub{userID: "u1"}, pngReader(t), WithImagePicker(picker))

	for i := 0; i < 4; i++ {
		require.NoError(t, c.AddImage(context.Background()))
	}
	require.Len(t, c.Draft().Images, 4)
	require.Equal(t, 4, picker.calls)

	// The fifth add is rejected before the picker opens.
	err := c.AddImage(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Equal(t, "You can attach up to 4 photos", models.UserMessage(err))
	assert.Len(t, c.Draft().Images, 4)
	assert.Equal(t, 4, picker.calls)
}

func TestComposer_AddImage_CancelledPicker(t *testing.T) {
	t.Parallel()

	picker := &pickerStub{pickFn: func(context.Context) (string, error) { return "", nil }}
	c := New(acceptAll(), &identityStub{userID: "u1"}, pngReader(t), WithImagePicker(picker))

	require.NoError(t, c.AddImage(context.Background()))
	assert.Empty(t, c.Draft().Images)
}

func TestComposer_SubmitBuildsRequest(t *testing.T) {
	t.Parallel()

	var got api.CreatePostRequest
	submitter := &submitterStub{createPostFn: func(_ context.Context, in api.CreatePostRequest) error {
		got = in
		return nil
	}}
	picker := &pickerStub{pickFn: func(context.Context) (string, error) { return "file:///tmp/a.png", nil }}

	var readPaths []string
	data := tinyPNG(t)
	reader := FileReader(func(path string) ([]byte, error) {
		readPaths = append(readPaths, path)
		return data, nil
	})

	c := New(submitter, &identityStub{userID: "u7"}, reader, WithImagePicker(picker))
	c.SetText("block party on saturday #TangleTogether")
	c.SetPostType(models.PostTypeEvent)
	eventDate := time.Date(2026, 9, 5, 18, 0, 0, 0, time.UTC)
	c.SetEventDate(eventDate)
	require.NoError(t, c.AddImage(context.Background()))

	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, "block party on saturday #TangleTogether", got.Description)
	assert.Equal(t, models.PostTypeEvent, got.PostType)
	assert.Equal(t, "u7", got.UserID)
	assert.Equal(t, []string{"TangleTogether"}, got.Tags)
	require.NotNil(t, got.EventDate)
	assert.True(t, got.EventDate.Equal(eventDate))
	assert.Equal(t, "mohali", got.Location)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "post_0.jpg", got.Images[0].Name)
	assert.Equal(t, "image/jpeg", got.Images[0].ContentType)

	// file:// scheme was stripped before the read.
	assert.Equal(t, []string{"/tmp/a.png"}, readPaths)

	// Success clears the draft.
	draft := c.Draft()
	assert.Empty(t, draft.Text)
	assert.Empty(t, draft.Images)
	assert.Nil(t, draft.EventDate)
	assert.Equal(t, models.PostTypeDiscussion, draft.PostType)
}

func TestComposer_FailureKeepsDraft(t *testing.T) {
	t.Parallel()

	submitter := &submitterStub{createPostFn: func(context.Context, api.CreatePostRequest) error {
		return models.NewTransportError(errors.New("timeout"))
	}}
	picker := &pickerStub{pickFn: func(context.Context) (string, error) { return "/tmp/a.png", nil }}
	c := New(submitter, &identityStub{userID: "u1"}, pngReader(t), WithImagePicker(picker))
	c.SetText("hello")
	require.NoError(t, c.AddImage(context.Background()))

	require.Error(t, c.Submit(context.Background()))

	draft := c.Draft()
	assert.Equal(t, "hello", draft.Text)
	assert.Len(t, draft.Images, 1)
}

func TestComposer_UnreadableImage(t *testing.T) {
	t.Parallel()

	reader := FileReader(func(string) ([]byte, error) { return nil, errors.New("gone") })
	picker := &pickerStub{pickFn: func(context.Context) (string, error) { return "/tmp/a.png", nil }}
	c := New(acceptAll(), &identityStub{userID: "u1"}, reader, WithImagePicker(picker))
	c.SetText("hello")
	require.NoError(t, c.AddImage(context.Background()))

	err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func TestComposer_SetTextTruncates(t *testing.T) {
	t.Parallel()

	c := New(acceptAll(), &identityStub{userID: "u1"}, pngReader(t))
	long := make([]byte, models.MaxDescriptionLen+100)
	for i := range long {
		long[i] = 'x'
	}
	c.SetText(string(long))
	assert.Len(t, c.Draft().Text, models.MaxDescriptionLen)
}

func TestComposer_SetTextTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// The cap counts characters; a multi-byte rune straddling the limit
	// must be dropped whole, never split into a dangling byte sequence.
	c := New(acceptAll(), &identityStub{userID: "u1"}, pngReader(t))
	c.SetText(strings.Repeat("x", models.MaxDescriptionLen-1) + "नमस्ते")

	text := c.Draft().Text
	assert.True(t, utf8.ValidString(text))
	assert.Equal(t, models.MaxDescriptionLen, utf8.RuneCountInString(text))
	assert.True(t, strings.HasSuffix(text, "न"))
}
