package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
	"github.com/lehigh-university-libraries/covermatch/internal/providers"
)

const (
	defaultURL          = "http://localhost:11434"
	defaultCaptionModel = "llava:13b"
	defaultEmbedModel   = "nomic-embed-text"
)

// Ollama embeds covers by captioning them with a vision model and embedding
// the caption.
type Ollama struct {
	config providers.Config
	client *http.Client
}

// New returns a new Ollama provider
func New(config providers.Config) *Ollama {
	if config.URL == "" {
		config.URL = os.Getenv("OLLAMA_URL")
	}
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

	return &Ollama{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (o *Ollama) Name() string {
	return "ollama"
}

// EmbedImage describes the cover with the caption model and embeds the text
func (o *Ollama) EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error) {
	data, err := providers.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	caption, err := o.caption(ctx, data)
	if err != nil {
		return nil, providers.Unavailable(o.Name(), err)
	}
	slog.Debug("Ollama cover caption", "model", o.config.CaptionModel, "chars", len(caption))

	v, err := o.embed(ctx, caption)
	if err != nil {
		return nil, providers.Unavailable(o.Name(), err)
	}
	return v, nil
}

func (o *Ollama) caption(ctx context.Context, png []byte) (string, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.config.CaptionModel,
		"prompt": o.config.PromptOrDefault(),
		"images": []string{base64.StdEncoding.EncodeToString(png)},
		"stream": false,
		"options": map[string]interface{}{
			"temperature": o.config.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := o.post(ctx, "/api/generate", requestBody, &response); err != nil {
		return "", err
	}

	caption := strings.TrimSpace(response.Response)
	if caption == "" {
		return "", fmt.Errorf("empty caption returned from Ollama")
	}
	return caption, nil
}

func (o *Ollama) embed(ctx context.Context, text string) (models.Embedding, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"model": o.config.Model,
		"input": text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := o.post(ctx, "/api/embed", requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("no embeddings returned from Ollama")
	}
	return models.Embedding(response.Embeddings[0]), nil
}

func (o *Ollama) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", o.config.URL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

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
