package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
	"github.com/lehigh-university-libraries/covermatch/internal/providers"
)

const (
	defaultURL          = "https://api.openai.com/v1"
	defaultCaptionModel = "gpt-4o"
	defaultEmbedModel   = "text-embedding-3-small"
)

// OpenAI embeds covers by captioning them with a chat model and embedding
// the caption.
type OpenAI struct {
	config providers.Config
	client *http.Client
}

// New returns a new OpenAI provider
func New(config providers.Config) *OpenAI {
	if config.URL == "" {
		config.URL = defaultURL
	}
	if config.CaptionModel == "" {
		config.CaptionModel = defaultCaptionModel
	}
	if config.Model == "" {
		config.Model = defaultEmbedModel
	}
	config.URL = strings.TrimRight(config.URL, "/")

	return &OpenAI{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (o *OpenAI) Name() string {
	return "openai"
}

// EmbedImage describes the cover with the chat model and embeds the text
func (o *OpenAI) EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, providers.Unavailable(o.Name(), fmt.Errorf("OPENAI_API_KEY environment variable not set"))
	}

	data, err := providers.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	caption, err := o.caption(ctx, apiKey, data)
	if err != nil {
		return nil, providers.Unavailable(o.Name(), err)
	}

	v, err := o.embed(ctx, apiKey, caption)
	if err != nil {
		return nil, providers.Unavailable(o.Name(), err)
	}
	return v, nil
}

func (o *OpenAI) caption(ctx context.Context, apiKey string, png []byte) (string, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": o.config.CaptionModel,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": o.config.PromptOrDefault()},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
		"temperature": o.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := o.post(ctx, apiKey, "/chat/completions", requestBody, &response); err != nil {
		return "", err
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func (o *OpenAI) embed(ctx context.Context, apiKey, text string) (models.Embedding, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model": o.config.Model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := o.post(ctx, apiKey, "/embeddings", requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned from OpenAI")
	}
	return models.Embedding(response.Data[0].Embedding), nil
}

func (o *OpenAI) post(ctx context.Context, apiKey, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", o.config.URL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
