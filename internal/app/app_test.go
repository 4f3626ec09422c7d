package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/covermatch/internal/config"
)

func TestNewEmbedder(t *testing.T) {
	tests := []struct {
		provider string
		name     string
		wantErr  bool
	}{
		{"clip", "clip", false},
		{"ollama", "ollama", false},
		{"openai", "openai", false},
		{"gemini", "gemini", false},
		{"tesseract", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			embedder, err := NewEmbedder(config.EmbeddingConfig{Provider: tt.provider})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if embedder.Name() != tt.name {
				t.Errorf("Expected provider %s, got %s", tt.name, embedder.Name())
			}
		})
	}
}

func TestNewWiresMemoryCatalogue(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{Port: 8888, UploadLimitMB: 10},
		Database:  config.DatabaseConfig{Driver: "memory"},
		Embedding: config.EmbeddingConfig{Provider: "clip", Dimension: 768, BreakerFailures: 5},
		Covers:    config.CoversConfig{Dir: filepath.Join(t.TempDir(), "covers")},
	}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	info := a.ProviderInfo()
	assert.Equal(t, "clip", info.Name)
	assert.Equal(t, "default", info.Model)
	assert.Equal(t, "closed", info.State())

	stats, err := a.Repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Books)
	assert.NotNil(t, a.Handler())
}
