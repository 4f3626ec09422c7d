package gemini

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
	"github.com/lehigh-university-libraries/covermatch/internal/providers"
)

const (
	defaultCaptionModel = "gemini-1.5-flash"
	defaultEmbedModel   = "text-embedding-004"
)

// Gemini embeds covers by captioning them with a Gemini model and embedding
// the caption.
type Gemini struct {
	config providers.Config
}

// New returns a new Gemini provider
func New(config providers.Config) *Gemini {
	if config.CaptionModel == "" {
		config.CaptionModel = defaultCaptionModel
	}
	if config.Model == "" {
		config.Model = defaultEmbedModel
	}
	return &Gemini{config: config}
}

func (g *Gemini) Name() string {
	return "gemini"
}

// EmbedImage describes the cover and embeds the description
func (g *Gemini) EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, providers.Unavailable(g.Name(), fmt.Errorf("GEMINI_API_KEY environment variable not set"))
	}

	data, err := providers.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, providers.Unavailable(g.Name(), fmt.Errorf("failed to create new gemini client: %w", err))
	}
	defer client.Close()

	caption, err := g.caption(ctx, client, data)
	if err != nil {
		return nil, providers.Unavailable(g.Name(), err)
	}

	res, err := client.EmbeddingModel(g.config.Model).EmbedContent(ctx, genai.Text(caption))
	if err != nil {
		return nil, providers.Unavailable(g.Name(), fmt.Errorf("failed to embed content: %w", err))
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, providers.Unavailable(g.Name(), fmt.Errorf("empty embedding returned from Gemini"))
	}

	return models.Embedding(res.Embedding.Values), nil
}

func (g *Gemini) caption(ctx context.Context, client *genai.Client, png []byte) (string, error) {
	model := client.GenerativeModel(g.config.CaptionModel)
	model.SetTemperature(float32(g.config.Temperature))

	resp, err := model.GenerateContent(ctx, genai.ImageData("png", png), genai.Text(g.config.PromptOrDefault()))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}

	return sb.String(), nil
}
