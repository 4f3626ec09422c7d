// Package clip talks to an image embedding sidecar serving a CLIP model.
//
// The sidecar accepts POST {url}/embed with {"model": ..., "image": <base64 PNG>}
// and answers {"embedding": [...]}.
package clip

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
	defaultURL   = "http://localhost:8001"
	defaultModel = "ViT-L/14"
)

// CLIP is a provider for a CLIP embedding sidecar
type CLIP struct {
	config providers.Config
	client *http.Client
}

// New returns a new CLIP provider
func New(config providers.Config) *CLIP {
	if config.URL == "" {
		config.URL = os.Getenv("CLIP_URL")
	}
	if config.URL == "" {
		config.URL = defaultURL
	}
	if config.Model == "" {
		config.Model = defaultModel
	}
	config.URL = strings.TrimRight(config.URL, "/")

	return &CLIP{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (c *CLIP) Name() string {
	return "clip"
}

// EmbedImage sends the image to the sidecar and returns its embedding
func (c *CLIP) EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error) {
	data, err := providers.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": c.config.Model,
		"image": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.URL+"/embed", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, providers.Unavailable(c.Name(), fmt.Errorf("failed to send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, providers.Unavailable(c.Name(),
			fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body)))
	}

	var response struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, providers.Unavailable(c.Name(), fmt.Errorf("failed to decode response body: %w", err))
	}

	if len(response.Embedding) == 0 {
		return nil, providers.Unavailable(c.Name(), fmt.Errorf("empty embedding returned"))
	}

	return models.Embedding(response.Embedding), nil
}
