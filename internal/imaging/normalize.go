// Package imaging normalizes uploaded pictures for the completion API
// and manages the on-disk upload area.
//
// The completion API only understands base64 JPEG data URLs, so every
// accepted upload is flattened to 3-channel RGB over white and
// re-encoded before it is embedded or stored.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	// Registered for image.Decode.
	_ "image/gif"
	_ "image/png"
)

// Sentinel errors checked by the HTTP boundary.
var (
	// ErrBadImage marks undecodable or corrupt payloads. The chat
	// pipeline degrades to a text-only prompt on it, never fails.
	ErrBadImage = errors.New("image cannot be decoded")

	// ErrUnsupportedType marks MIME types outside the allow-list.
	ErrUnsupportedType = errors.New("unsupported image type")

	// ErrTooLarge marks payloads over the configured byte limit.
	ErrTooLarge = errors.New("image too large")
)

// jpegQuality matches what the upstream API tolerates well without
// bloating the base64 payload.
const jpegQuality = 85

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// AllowedType reports whether mime is accepted for upload.
func AllowedType(mime string) bool {
	return allowedTypes[mime]
}

// Image is a normalized, JPEG-encoded picture ready for embedding.
type Image struct {
	JPEG []byte
}

// DataURL returns the base64 data URL carried in an image-bearing
// chat message part.
func (i *Image) DataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(i.JPEG)
}

// Normalize decodes data (JPEG, PNG or GIF), flattens transparency over
// white and re-encodes as JPEG.
func Normalize(data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	bounds := src.Bounds()
	rgb := image.NewRGBA(bounds)
	draw.Draw(rgb, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(rgb, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("%w: re-encode: %v", ErrBadImage, err)
	}
	return &Image{JPEG: buf.Bytes()}, nil
}
