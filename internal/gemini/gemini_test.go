package gemini

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/providers"
)

func TestNewDefaults(t *testing.T) {
	g := New(providers.Config{})
	if g.config.CaptionModel != defaultCaptionModel {
		t.Errorf("Expected caption model %s, got %s", defaultCaptionModel, g.config.CaptionModel)
	}
	if g.config.Model != defaultEmbedModel {
		t.Errorf("Expected embed model %s, got %s", defaultEmbedModel, g.config.Model)
	}
}

func TestEmbedImageWithoutAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New(providers.Config{}).EmbedImage(context.Background(), image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, matching.ErrProviderUnavailable) {
		t.Errorf("Expected ErrProviderUnavailable, got %v", err)
	}
}
