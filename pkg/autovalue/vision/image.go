package vision

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DefaultMediaType is assumed for bare base64 payloads without a data URL header.
const DefaultMediaType = "image/jpeg"

var supportedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var ErrInvalidImage = errors.New("vision: invalid image")

// Image is one photo of the vehicle, base64 encoded.
type Image struct {
	MediaType string
	Data      string
}

// ParseImage accepts either a data URL ("data:image/png;base64,....") or a
// bare base64 string.
func ParseImage(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	}

	img := Image{MediaType: DefaultMediaType, Data: s}
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s[len("data:"):], ",")
		if !ok {
			return Image{}, fmt.Errorf("%w: data url without payload", ErrInvalidImage)
		}
		mediaType, enc, _ := strings.Cut(header, ";")
		if enc != "base64" {
			return Image{}, fmt.Errorf("%w: data url is not base64", ErrInvalidImage)
		}
		img.MediaType = strings.ToLower(mediaType)
		img.Data = data
	}

	if !supportedMediaTypes[img.MediaType] {
		return Image{}, fmt.Errorf("%w: unsupported media type %q", ErrInvalidImage, img.MediaType)
	}
	if _, err := base64.StdEncoding.DecodeString(img.Data); err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// ParseImages parses every entry, failing on the first bad one.
func ParseImages(in []string) ([]Image, error) {
	out := make([]Image, 0, len(in))
	for i, s := range in {
		img, err := ParseImage(s)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out = append(out, img)
	}
	return out, nil
}
