package poster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"

	"github.com/nfnt/resize"
)

// DefaultMaxWidth is the poster width used when none is configured
const DefaultMaxWidth = 600

// Resizer downscales JPEG and PNG posters wider than MaxWidth, keeping the
// aspect ratio. Other content is stored as uploaded.
type Resizer struct {
	MaxWidth uint
	Quality  int
}

// NewResizer creates a resizer. A zero maxWidth selects DefaultMaxWidth.
func NewResizer(maxWidth uint) *Resizer {
	if maxWidth == 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Resizer{MaxWidth: maxWidth, Quality: jpeg.DefaultQuality}
}

// Process implements mediacatalog.PosterProcessor
func (r *Resizer) Process(ctx context.Context, reader io.Reader, mimeType string) (io.Reader, string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("read poster: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	if mimeType != "image/jpeg" && mimeType != "image/png" {
		return bytes.NewReader(data), mimeType, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("Poster could not be decoded, storing as uploaded", "mime_type", mimeType, "error", err)
		return bytes.NewReader(data), mimeType, nil
	}
	if uint(img.Bounds().Dx()) <= r.MaxWidth {
		return bytes.NewReader(data), mimeType, nil
	}

	resized := resize.Resize(r.MaxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, resized)
		mimeType = "image/png"
	default:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: r.Quality})
		mimeType = "image/jpeg"
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode poster: %w", err)
	}
	return &buf, mimeType, nil
}
