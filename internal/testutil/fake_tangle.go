// Package testutil provides an in-process fake of the Tangle API for
// client tests: the real routes, envelope shapes and auth behavior, with
// handles for seeding data and injecting failures.
package testutil

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"tangle/internal/models"
)

type fakeUser struct {
	user     models.User
	password string
}

// FakeTangle is an in-memory Tangle backend bound to a real listener so
// the HTTP client under test talks to it over the loopback interface.
type FakeTangle struct {
	App *fiber.App

	mu       sync.Mutex
	users    map[string]fakeUser // by email
	tokens   map[string]string   // token -> user id
	otps     map[string]string   // email -> otp
	posts    []models.Post
	comments map[string][]models.Comment // postID -> thread
	likes    map[string]map[string]bool  // postID -> userID -> liked

	failNext map[string]failure // path suffix -> injected failure
	notify   chan interface{}
	uploads  []Upload

	baseURL string
}

// Upload records one image part received by the add-post endpoint.
type Upload struct {
	Filename    string
	ContentType string
	Size        int
}

type failure struct {
	status  int
	message string
}

// NewFakeTangle builds the fake with its routes registered.
func NewFakeTangle() *FakeTangle {
	f := &FakeTangle{
		users:    make(map[string]fakeUser),
		tokens:   make(map[string]string),
		otps:     make(map[string]string),
		comments: make(map[string][]models.Comment),
		likes:    make(map[string]map[string]bool),
		failNext: make(map[string]failure),
		notify:   make(chan interface{}, 16),
	}
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	api := app.Group("/api/user")
	api.Post("/login", f.handleLogin)
	api.Post("/register-otp", f.handleRegisterOTP)
	api.Post("/verify-register-otp", f.handleVerifyOTP)
	api.Post("/register", f.handleRegister)
	api.Post("/forgot-password", f.handleForgotPassword)
	api.Post("/reset-password", f.handleResetPassword)
	api.Get("/get-emojis", f.handleGetAvatars)

	api.Get("/get-posts", f.handleGetPosts)
	api.Post("/like-unlike-post", f.requireAuth, f.handleToggleLike)
	api.Post("/add-comment", f.requireAuth, f.handleAddComment)
	api.Get("/get-post-comments", f.handleGetComments)
	api.Post("/add-post", f.requireAuth, f.handleAddPost)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", websocket.New(f.handleNotifications))

	f.App = app
	return f
}

// Start binds the fake to a random loopback port and returns its base
// URL. The server shuts down with the test.
func (f *FakeTangle) Start(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		_ = f.App.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = f.App.Shutdown()
	})

	f.baseURL = "http://" + ln.Addr().String()
	return f.baseURL
}

// WSURL returns the websocket notifications endpoint for the started
// server.
func (f *FakeTangle) WSURL() string {
	return "ws" + strings.TrimPrefix(f.baseURL, "http") + "/ws/notifications"
}

// FailNext injects a one-shot failure on the next request whose path ends
// with suffix.
func (f *FakeTangle) FailNext(suffix string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext[suffix] = failure{status: status, message: message}
}

// PushNotification queues a frame for connected websocket subscribers.
func (f *FakeTangle) PushNotification(n interface{}) {
	f.notify <- n
}

// SeedUser registers a login-able account and returns its user record.
func (f *FakeTangle) SeedUser(email, password, name string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := models.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Emoji: "🦊",
	}
	f.users[email] = fakeUser{user: user, password: password}
	return user
}

// SeedPosts adds n generated posts to the feed and returns them, newest
// first, the way the real API orders its list.
func (f *FakeTangle) SeedPosts(n int) []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	faker := gofakeit.New(0)
	seeded := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := models.Post{
			ID: uuid.NewString(),
			Author: models.UserRef{
				ID:     uuid.NewString(),
				Name:   faker.Name(),
				Avatar: faker.ImageURL(64, 64),
			},
			Description:  faker.Sentence(8),
			PostType:     models.PostTypeDiscussion,
			Location:     faker.City(),
			Tags:         []string{"TangleTogether"},
			ViewCount:    faker.Number(0, 500),
			LikeCount:    faker.Number(0, 50),
			CommentCount: 0,
			CreatedAt:    time.Now().Add(-time.Duration(i) * time.Hour),
		}
		seeded = append(seeded, post)
	}
	f.posts = append(seeded, f.posts...)
	return seeded
}

// SeedComments attaches generated comments to a post.
func (f *FakeTangle) SeedComments(postID string, texts ...string) []models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	faker := gofakeit.New(0)
	for _, text := range texts {
		f.comments[postID] = append(f.comments[postID], models.Comment{
			ID:        uuid.NewString(),
			PostID:    postID,
			Author:    models.UserRef{ID: uuid.NewString(), Name: faker.Name()},
			Text:      text,
			CreatedAt: time.Now().Format(time.RFC3339),
		})
	}
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].CommentCount = len(f.comments[postID])
		}
	}
	return f.comments[postID]
}

// Posts returns a copy of the current feed.
func (f *FakeTangle) Posts() []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Post, len(f.posts))
	copy(out, f.posts)
	return out
}

// LastPost returns the newest post, if any.
func (f *FakeTangle) LastPost() (models.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		return models.Post{}, false
	}
	return f.posts[0], true
}

func (f *FakeTangle) recordUpload(name, contentType string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, Upload{Filename: name, ContentType: contentType, Size: len(data)})
}

// Uploads returns the image parts received so far.
func (f *FakeTangle) Uploads() []Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Upload, len(f.uploads))
	copy(out, f.uploads)
	return out
}

func envelope(data interface{}, message string, success bool) fiber.Map {
	return fiber.Map{"data": data, "message": message, "success": success}
}

func (f *FakeTangle) injectedFailure(c *fiber.Ctx) (failure, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for suffix, fail := range f.failNext {
		if strings.HasSuffix(c.Path(), suffix) {
			delete(f.failNext, suffix)
			return fail, true
		}
	}
	return failure{}, false
}

func (f *FakeTangle) requireAuth(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	f.mu.Lock()
	_, ok := f.tokens[token]
	f.mu.Unlock()
	if auth == "" || !ok {
		return c.Status(fiber.StatusUnauthorized).
			JSON(envelope(nil, "Authentication required", false))
	}
	return c.Next()
}

func (f *FakeTangle) userIDForToken(c *fiber.Ctx) string {
	token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[token]
}

func (f *FakeTangle) handleNotifications(conn *websocket.Conn) {
	for n := range f.notify {
		if err := conn.WriteJSON(n); err != nil {
			return
		}
	}
}

func issueToken() string {
	return fmt.Sprintf("tok-%s", uuid.NewString())
}
