package testutil

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"tangle/internal/models"
)

func (f *FakeTangle) handleLogin(c *fiber.Ctx) error {
	if fail, ok := f.injectedFailure(c); ok {
		return c.Status(fail.status).JSON(envelope(nil, fail.message, false))
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Invalid request", false))
	}
	f.mu.Lock()
	account, ok := f.users[body.Email]
	f.mu.Unlock()
	if !ok || account.password != body.Password {
		return c.Status(fiber.StatusUnauthorized).JSON(envelope(nil, "Invalid credentials", false))
	}
	token := issueToken()
	f.mu.Lock()
	f.tokens[token] = account.user.ID
	f.mu.Unlock()
	return c.JSON(envelope(fiber.Map{"token": token, "user": account.user}, "Login successful", true))
}

func (f *FakeTangle) handleRegisterOTP(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Email is required", false))
	}
	f.mu.Lock()
	f.otps[body.Email] = "4242"
	f.mu.Unlock()
	return c.JSON(envelope(nil, "OTP sent", true))
}

func (f *FakeTangle) handleVerifyOTP(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Invalid request", false))
	}
	f.mu.Lock()
	expected, ok := f.otps[body.Email]
	f.mu.Unlock()
	if !ok || expected != body.OTP {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Invalid OTP", false))
	}
	return c.JSON(envelope(nil, "OTP verified", true))
}

func (f *FakeTangle) handleRegister(c *fiber.Ctx) error {
	var body struct {
		Name     string   `json:"name"`
		Email    string   `json:"email"`
		Password string   `json:"password"`
		Society  string   `json:"society"`
		Block    string   `json:"block"`
		Emoji    string   `json:"emoji"`
		Interest []string `json:"interests"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Invalid request", false))
	}
	user := models.User{
		ID:       uuid.NewString(),
		Name:     body.Name,
		Email:    body.Email,
		Society:  body.Society,
		Block:    body.Block,
		Emoji:    body.Emoji,
		Interest: body.Interest,
	}
	token := issueToken()
	f.mu.Lock()
	f.users[body.Email] = fakeUser{user: user, password: body.Password}
	f.tokens[token] = user.ID
	f.mu.Unlock()
	return c.JSON(envelope(fiber.Map{"token": token, "user": user}, "Welcome to Tangle", true))
}

func (f *FakeTangle) handleForgotPassword(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Email is required", false))
	}
	f.mu.Lock()
	f.otps[body.Email] = "4242"
	f.mu.Unlock()
	return c.JSON(envelope(nil, "Reset OTP sent", true))
}

func (f *FakeTangle) handleResetPassword(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Invalid request", false))
	}
	f.mu.Lock()
	expected, ok := f.otps[body.Email]
	account, hasUser := f.users[body.Email]
	if ok && hasUser && expected == body.OTP {
		account.password = body.Password
		f.users[body.Email] = account
	}
	f.mu.Unlock()
	if !ok || !hasUser || expected != body.OTP {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Invalid OTP", false))
	}
	return c.JSON(envelope(nil, "Password updated", true))
}

func (f *FakeTangle) handleGetAvatars(c *fiber.Ctx) error {
	return c.JSON(envelope([]string{"🦊", "🐙", "🦉", "🐢"}, "", true))
}

func (f *FakeTangle) handleGetPosts(c *fiber.Ctx) error {
	if fail, ok := f.injectedFailure(c); ok {
		return c.Status(fail.status).JSON(envelope(nil, fail.message, false))
	}
	userID := f.userIDForToken(c)
	f.mu.Lock()
	out := make([]models.Post, len(f.posts))
	copy(out, f.posts)
	for i := range out {
		out[i].ViewerHasLiked = userID != "" && f.likes[out[i].ID][userID]
	}
	f.mu.Unlock()
	return c.JSON(envelope(out, "", true))
}

func (f *FakeTangle) handleToggleLike(c *fiber.Ctx) error {
	if fail, ok := f.injectedFailure(c); ok {
		return c.Status(fail.status).JSON(envelope(nil, fail.message, false))
	}
	var body struct {
		PostID string `json:"post_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.PostID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "post_id is required", false))
	}
	userID := f.userIDForToken(c)

	f.mu.Lock()
	defer f.mu.Unlock()
	idx := -1
	for i := range f.posts {
		if f.posts[i].ID == body.PostID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return c.Status(fiber.StatusNotFound).JSON(envelope(nil, "Post not found", false))
	}
	if f.likes[body.PostID] == nil {
		f.likes[body.PostID] = make(map[string]bool)
	}
	if f.likes[body.PostID][userID] {
		delete(f.likes[body.PostID], userID)
		f.posts[idx].LikeCount--
	} else {
		f.likes[body.PostID][userID] = true
		f.posts[idx].LikeCount++
	}
	return c.JSON(envelope(fiber.Map{"total_likes": f.posts[idx].LikeCount}, "", true))
}

func (f *FakeTangle) handleAddComment(c *fiber.Ctx) error {
	if fail, ok := f.injectedFailure(c); ok {
		return c.Status(fail.status).JSON(envelope(nil, fail.message, false))
	}
	var body struct {
		PostID  string `json:"post_id"`
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&body); err != nil || body.PostID == "" || body.Comment == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "post_id and comment are required", false))
	}
	userID := f.userIDForToken(c)

	f.mu.Lock()
	defer f.mu.Unlock()
	author := models.UserRef{ID: userID, Name: "Unknown"}
	for _, account := range f.users {
		if account.user.ID == userID {
			author = account.user.Ref()
			break
		}
	}
	comment := models.Comment{
		ID:        uuid.NewString(),
		PostID:    body.PostID,
		Author:    author,
		Text:      body.Comment,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	f.comments[body.PostID] = append(f.comments[body.PostID], comment)
	for i := range f.posts {
		if f.posts[i].ID == body.PostID {
			f.posts[i].CommentCount = len(f.comments[body.PostID])
		}
	}
	return c.JSON(envelope(comment, "Comment added", true))
}

func (f *FakeTangle) handleGetComments(c *fiber.Ctx) error {
	if fail, ok := f.injectedFailure(c); ok {
		return c.Status(fail.status).JSON(envelope(nil, fail.message, false))
	}
	postID := c.Query("post_id")
	if postID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "post_id is required", false))
	}
	f.mu.Lock()
	thread := make([]models.Comment, len(f.comments[postID]))
	copy(thread, f.comments[postID])
	f.mu.Unlock()
	return c.JSON(envelope(fiber.Map{"comments": thread}, "", true))
}

func (f *FakeTangle) handleAddPost(c *fiber.Ctx) error {
	if fail, ok := f.injectedFailure(c); ok {
		return c.Status(fail.status).JSON(envelope(nil, fail.message, false))
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "Multipart form required", false))
	}
	field := func(name string) string {
		if vals := form.Value[name]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}
	desc := field("desc")
	if desc == "" {
		return c.Status(fiber.StatusBadRequest).JSON(envelope(nil, "desc is required", false))
	}

	post := models.Post{
		ID:          uuid.NewString(),
		Description: desc,
		PostType:    normalizePostType(field("post_type")),
		Location:    field("location"),
		Tags:        form.Value["tags"],
		CreatedAt:   time.Now(),
	}
	if raw := field("event_date"); raw != "" {
		if when, err := time.Parse(time.RFC3339, raw); err == nil {
			post.EventDate = &when
		}
	}
	for _, header := range form.File["images"] {
		file, err := header.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			continue
		}
		post.Images = append(post.Images, header.Filename)
		f.recordUpload(header.Filename, header.Header.Get("Content-Type"), data)
	}

	userID := field("user_id")
	f.mu.Lock()
	for _, account := range f.users {
		if account.user.ID == userID {
			post.Author = account.user.Ref()
			break
		}
	}
	if post.Author.ID == "" {
		post.Author = models.UserRef{ID: userID}
	}
	f.posts = append([]models.Post{post}, f.posts...)
	f.mu.Unlock()

	return c.JSON(envelope(post, "Post created", true))
}

func normalizePostType(raw string) models.PostType {
	for _, t := range []models.PostType{
		models.PostTypeDiscussion, models.PostTypeEvent, models.PostTypeVote,
		models.PostTypeIntroduction, models.PostTypeAnnouncement,
	} {
		if strings.EqualFold(string(t), raw) {
			return t
		}
	}
	return models.PostType(raw)
}
