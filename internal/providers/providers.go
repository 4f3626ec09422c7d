package providers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// CoverCaptionPrompt asks a vision model for a description of a cover that
// is stable across photos of the same book.
const CoverCaptionPrompt = `Describe this book cover for visual identification.
List the title, author and any other printed text exactly as shown, then the dominant colors,
the layout and the main illustration or photograph. Ignore the background around the book,
glare and the angle of the photo. Answer in plain text without commentary.`

// Config represents the configuration for an embedding provider
type Config struct {
	// URL is the provider endpoint. Empty selects the provider default.
	URL string
	// Model produces the embedding.
	Model string
	// CaptionModel describes the image for providers that embed a caption.
	CaptionModel string
	Temperature  float64
	Prompt       string
	Timeout      time.Duration
}

// PromptOrDefault returns the configured caption prompt.
func (c Config) PromptOrDefault() string {
	if c.Prompt == "" {
		return CoverCaptionPrompt
	}
	return c.Prompt
}

// Embedder defines the interface for an embedding provider
type Embedder interface {
	Name() string
	EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error)
}

// Unavailable wraps a provider failure so callers can match it with
// errors.Is(err, matching.ErrProviderUnavailable).
func Unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", matching.ErrProviderUnavailable, provider, err)
}

// EncodePNG encodes an image for transport to a provider.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
