// Package composer collects a draft post and submits it through the feed
// store. The draft is composer-local: it is never persisted, survives
// failed submissions for retry, and is discarded on success.
package composer

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"tangle/internal/api"
	"tangle/internal/geo"
	"tangle/internal/media"
	"tangle/internal/models"
	"tangle/internal/observability"
)

// Submitter is the slice of the feed store the composer depends on.
type Submitter interface {
	CreatePost(ctx context.Context, in api.CreatePostRequest) error
}

// Identity reports the authenticated viewer.
type Identity interface {
	UserID() string
}

// ImagePicker opens the platform picker and returns the chosen image URI,
// or "" when the user cancels.
type ImagePicker interface {
	Pick(ctx context.Context) (string, error)
}

// FileReader loads image bytes from a picker URI (scheme already
// stripped).
type FileReader func(path string) ([]byte, error)

// ResolvedLocation is the best-effort location enrichment attached to a
// draft.
type ResolvedLocation struct {
	Address     string
	Coordinates geo.Coordinates
}

// Draft is the in-progress post content.
type Draft struct {
	Text      string
	PostType  models.PostType
	Images    []string
	EventDate *time.Time
	Location  *ResolvedLocation
}

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Hashtags extracts the tag set from draft text, without the '#' prefix,
// keeping first-occurrence order.
func Hashtags(text string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, match := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := match[1]
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// Composer validates and submits a new post; it owns no cross-session
// state.
type Composer struct {
	submitter       Submitter
	identity        Identity
	picker          ImagePicker
	readFile        FileReader
	locator         geo.Locator
	resolver        *geo.Resolver
	defaultLocation string
	log             *observability.OpLogger

	draft Draft
}

// Option configures a Composer.
type Option func(*Composer)

// WithImagePicker wires the platform image picker.
func WithImagePicker(p ImagePicker) Option {
	return func(c *Composer) { c.picker = p }
}

// WithLocation wires position acquisition and reverse geocoding.
func WithLocation(locator geo.Locator, resolver *geo.Resolver) Option {
	return func(c *Composer) {
		c.locator = locator
		c.resolver = resolver
	}
}

// WithDefaultLocation overrides the sentinel address used when no
// location was resolved.
func WithDefaultLocation(address string) Option {
	return func(c *Composer) { c.defaultLocation = address }
}

// New builds an empty composer.
func New(submitter Submitter, identity Identity, readFile FileReader, opts ...Option) *Composer {
	c := &Composer{
		submitter:       submitter,
		identity:        identity,
		readFile:        readFile,
		defaultLocation: "mohali",
		log:             observability.NewOpLogger("composer"),
		draft:           Draft{PostType: models.PostTypeDiscussion},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Draft returns a copy of the current draft.
func (c *Composer) Draft() Draft {
	d := c.draft
	d.Images = append([]string(nil), c.draft.Images...)
	return d
}

// SetText replaces the draft text. The length cap counts characters, not
// bytes, so truncation never splits a multi-byte rune.
func (c *Composer) SetText(text string) {
	if utf8.RuneCountInString(text) > models.MaxDescriptionLen {
		text = string([]rune(text)[:models.MaxDescriptionLen])
	}
	c.draft.Text = text
}

// SetPostType selects the post type; unknown values fall back to
// Discussion.
func (c *Composer) SetPostType(t models.PostType) {
	if !models.ValidPostType(t) {
		t = models.PostTypeDiscussion
	}
	c.draft.PostType = t
}

// SetEventDate attaches an event date to the draft.
func (c *Composer) SetEventDate(t time.Time) {
	c.draft.EventDate = &t
}

// ClearEventDate removes the event date.
func (c *Composer) ClearEventDate() {
	c.draft.EventDate = nil
}

// AddImage opens the picker and appends the chosen image. The cap is
// enforced before the picker runs: with four images attached the picker
// is never invoked.
func (c *Composer) AddImage(ctx context.Context) error {
	if len(c.draft.Images) >= models.MaxPostImages {
		return models.NewValidationError("You can attach up to 4 photos")
	}
	if c.picker == nil {
		return models.NewValidationError("No photo source available")
	}
	uri, err := c.picker.Pick(ctx)
	if err != nil {
		return err
	}
	if uri == "" {
		return nil
	}
	c.draft.Images = append(c.draft.Images, uri)
	return nil
}

// RemoveImage drops the image at the given position.
func (c *Composer) RemoveImage(index int) {
	if index < 0 || index >= len(c.draft.Images) {
		return
	}
	c.draft.Images = append(c.draft.Images[:index], c.draft.Images[index+1:]...)
}

// ResolveLocation acquires the device position and attaches the
// best-effort address to the draft. Failure to get a fix leaves the draft
// unchanged; it never blocks submission.
func (c *Composer) ResolveLocation(ctx context.Context) error {
	if c.locator == nil {
		return models.NewValidationError("Location is not available")
	}
	address, coords, err := geo.ResolveAddress(ctx, c.locator, c.resolver)
	if err != nil {
		c.log.LogError(ctx, "resolve_location", err, nil)
		return err
	}
	c.draft.Location = &ResolvedLocation{Address: address, Coordinates: coords}
	return nil
}

// Submit validates the draft, builds the multipart payload and hands it
// to the feed store. Validation rules run in a fixed order; the first
// failure wins and surfaces its own message. A failed submission keeps
// the draft for retry; success clears it.
func (c *Composer) Submit(ctx context.Context) error {
	if c.identity == nil || c.identity.UserID() == "" {
		return models.NewUnauthorizedError("Please log in to share a post")
	}
	text := strings.TrimSpace(c.draft.Text)
	if text == "" {
		return models.NewValidationError("Please write something to share")
	}
	if len(c.draft.Images) < 1 {
		return models.NewValidationError("Please attach at least one photo")
	}
	if len(c.draft.Images) > models.MaxPostImages {
		return models.NewValidationError("You can attach up to 4 photos")
	}

	attachments := make([]media.Attachment, 0, len(c.draft.Images))
	for i, uri := range c.draft.Images {
		data, err := c.readFile(media.StripFileScheme(uri))
		if err != nil {
			return models.NewValidationError("Could not read an attached photo")
		}
		att, err := media.NormalizeAttachment(data, i)
		if err != nil {
			return models.NewValidationError("An attached file is not a supported image")
		}
		attachments = append(attachments, att)
	}

	location := c.defaultLocation
	req := api.CreatePostRequest{
		Description: text,
		PostType:    c.draft.PostType,
		UserID:      c.identity.UserID(),
		Tags:        Hashtags(text),
		EventDate:   c.draft.EventDate,
		Images:      attachments,
	}
	if c.draft.Location != nil {
		location = c.draft.Location.Address
	}
	req.Location = location

	if err := c.submitter.CreatePost(ctx, req); err != nil {
		// Draft stays intact for a fresh user-initiated retry.
		return err
	}

	c.draft = Draft{PostType: models.PostTypeDiscussion}
	return nil
}
