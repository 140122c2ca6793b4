package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"tangle/internal/media"
	"tangle/internal/models"
)

// CreatePostRequest is the multipart payload for the add-post endpoint.
type CreatePostRequest struct {
	Description string
	PostType    models.PostType
	UserID      string
	Location    string
	Tags        []string
	EventDate   *time.Time
	Images      []media.Attachment
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// imagePartHeader builds the part header for an image; mime/multipart's
// CreateFormFile hardcodes application/octet-stream, and the API wants the
// real content type on each part.
func imagePartHeader(fieldName, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		`form-data; name="`+quoteEscaper.Replace(fieldName)+`"; filename="`+quoteEscaper.Replace(filename)+`"`)
	h.Set("Content-Type", contentType)
	return h
}

// CreatePost submits a new post as a single multipart request. There is no
// partial-success state: the whole submission either lands or fails.
func (c *Client) CreatePost(ctx context.Context, in CreatePostRequest) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"desc":      in.Description,
		"post_type": strings.ToLower(string(in.PostType)),
		"user_id":   in.UserID,
		"location":  in.Location,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return models.NewTransportError(err)
		}
	}
	for _, tag := range in.Tags {
		if err := w.WriteField("tags", tag); err != nil {
			return models.NewTransportError(err)
		}
	}
	if in.EventDate != nil {
		if err := w.WriteField("event_date", in.EventDate.Format(time.RFC3339)); err != nil {
			return models.NewTransportError(err)
		}
	}
	for _, img := range in.Images {
		part, err := w.CreatePart(imagePartHeader("images", img.Name, img.ContentType))
		if err != nil {
			return models.NewTransportError(err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return models.NewTransportError(err)
		}
	}
	if err := w.Close(); err != nil {
		return models.NewTransportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/user/add-post"), &buf)
	if err != nil {
		return models.NewTransportError(err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, err = c.do(req)
	return err
}
