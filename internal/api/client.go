// Package api implements the HTTP client for the Tangle REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tangle/internal/config"
	"tangle/internal/models"
)

// TokenSource supplies the bearer token attached to authenticated
// requests. An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// Client talks to the Tangle API. Every method converts failures into a
// *models.AppError: transport failures (timeouts, connectivity) map to
// CodeTransport, rejected requests to CodeServer or CodeUnauthorized with
// the server's message carried verbatim when present.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// envelope is the JSON wrapper every Tangle endpoint responds with.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success *bool           `json:"success"`
}

// NewClient builds a Client from configuration. tokens may be nil for a
// purely unauthenticated client.
func NewClient(cfg *config.Config, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout()},
		tokens:  tokens,
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// do issues the request, maps failures to AppErrors and returns the
// decoded envelope.
func (c *Client) do(req *http.Request) (*envelope, error) {
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewTransportError(err)
	}

	var env envelope
	// A non-JSON body on an error status still needs to surface; decode
	// failures only matter for 2xx responses.
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode == http.StatusUnauthorized {
		msg := env.Message
		if msg == "" {
			msg = "Session expired. Please log in again."
		}
		return nil, models.NewUnauthorizedError(msg)
	}
	if resp.StatusCode >= 400 {
		return nil, models.NewServerError(env.Message)
	}
	if decodeErr != nil {
		return nil, models.NewServerError("")
	}
	if env.Success != nil && !*env.Success {
		return nil, models.NewServerError(env.Message)
	}
	return &env, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), nil)
	if err != nil {
		return models.NewTransportError(err)
	}
	env, err := c.do(req)
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return models.NewServerError("")
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (*envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, models.NewTransportError(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return nil, models.NewTransportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// GetPosts returns the server's current post list in canonical order.
func (c *Client) GetPosts(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := c.getJSON(ctx, "/api/user/get-posts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// LikeResult carries the server's response to a like toggle. TotalLikes is
// nil when the server omits the reconciled count.
type LikeResult struct {
	TotalLikes *int
}

// ToggleLike flips the viewer's like on the given post.
func (c *Client) ToggleLike(ctx context.Context, postID string) (*LikeResult, error) {
	env, err := c.postJSON(ctx, "/api/user/like-unlike-post", map[string]string{"post_id": postID})
	if err != nil {
		return nil, err
	}
	var body struct {
		TotalLikes *int `json:"total_likes"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &body); err != nil {
			return nil, models.NewServerError("")
		}
	}
	return &LikeResult{TotalLikes: body.TotalLikes}, nil
}

// AddComment submits a comment on the given post.
func (c *Client) AddComment(ctx context.Context, postID, text string) error {
	_, err := c.postJSON(ctx, "/api/user/add-comment", map[string]string{
		"post_id": postID,
		"comment": text,
	})
	return err
}

// GetComments fetches the full comment thread for one post. Returned
// comments are server-confirmed.
func (c *Client) GetComments(ctx context.Context, postID string) ([]models.Comment, error) {
	path := "/api/user/get-post-comments?post_id=" + url.QueryEscape(postID)
	var payload struct {
		Comments []models.Comment `json:"comments"`
	}
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, err
	}
	comments := payload.Comments
	for i := range comments {
		comments[i].PostID = postID
		comments[i].State = models.CommentConfirmed
	}
	return comments, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("tangle api client (%s)", c.baseURL)
}
