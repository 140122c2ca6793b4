// Package media normalizes post attachments before upload: decode, clamp
// to the master size, re-encode as JPEG.
package media

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// MasterMaxSize bounds the longest edge of an uploaded image.
	MasterMaxSize = 2048
	// JPEGQuality is the re-encode quality for upload attachments.
	JPEGQuality = 82
)

// Attachment is a normalized image part ready for a multipart upload.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// StripFileScheme removes a leading file:// prefix. Image picker URIs
// carry the scheme on one platform only; the upload path wants a bare path
// either way.
func StripFileScheme(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// AttachmentName returns the canonical upload filename for the image at
// the given position.
func AttachmentName(index int) string {
	return fmt.Sprintf("post_%d.jpg", index)
}

// NormalizeAttachment decodes raw image bytes (JPEG, PNG, GIF or WebP),
// downscales anything larger than MasterMaxSize and re-encodes as JPEG.
// index determines the part filename.
func NormalizeAttachment(data []byte, index int) (Attachment, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// The registered x/image decoder rejects some WebP variants the
		// cgo decoder handles.
		img, err = webp.Decode(bytes.NewReader(data))
		if err != nil {
			return Attachment{}, fmt.Errorf("decode image: %w", err)
		}
	}

	img = clampSize(img, MasterMaxSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Attachment{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Attachment{
		Name:        AttachmentName(index),
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
	}, nil
}

// clampSize scales img down so its longest edge is at most maxSize,
// preserving aspect ratio. Images already within bounds are returned
// unchanged.
func clampSize(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}

	var newW, newH int
	if w >= h {
		newW = maxSize
		newH = h * maxSize / w
	} else {
		newH = maxSize
		newW = w * maxSize / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
