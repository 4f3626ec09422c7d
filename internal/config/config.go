// Package config loads the covermatch configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables. Later layers win.
package config

import (
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/matching"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Covers    CoversConfig    `koanf:"covers"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	UploadLimitMB   int64         `koanf:"upload_limit_mb"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects the catalogue backend.
type DatabaseConfig struct {
	// Driver is one of memory, sqlite or postgres.
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of clip, ollama, openai or gemini.
	Provider     string        `koanf:"provider"`
	URL          string        `koanf:"url"`
	Model        string        `koanf:"model"`
	CaptionModel string        `koanf:"caption_model"`
	Timeout      time.Duration `koanf:"timeout"`
	// Dimension is the expected embedding length. 0 accepts any length.
	// When neither the file nor the environment sets it, the length of the
	// provider's model is used (see ModelDimension).
	Dimension         int  `koanf:"dimension"`
	ParallelRotations bool `koanf:"parallel_rotations"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// CoversConfig configures cover image storage.
type CoversConfig struct {
	Dir string `koanf:"dir"`
}

// LoggingConfig configures the default slog logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8888,
			UploadLimitMB:   10,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/covermatch.db",
		},
		Embedding: EmbeddingConfig{
			Provider:          "clip",
			Timeout:           60 * time.Second,
			Dimension:         matching.DefaultDimension,
			ParallelRotations: true,
			BreakerFailures:   5,
			BreakerTimeout:    30 * time.Second,
		},
		Covers: CoversConfig{
			Dir: "covers",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	switch c.Embedding.Provider {
	case "clip", "ollama", "openai", "gemini":
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.UploadLimitMB < 1 {
		return fmt.Errorf("server.upload_limit_mb must be positive, got %d", c.Server.UploadLimitMB)
	}
	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding.dimension must not be negative, got %d", c.Embedding.Dimension)
	}
	if known := ModelDimension(c.Embedding.Provider, c.Embedding.Model); known > 0 && c.Embedding.Dimension > 0 && c.Embedding.Dimension != known {
		return fmt.Errorf("embedding.dimension is %d but %s model %q produces %d values",
			c.Embedding.Dimension, c.Embedding.Provider, modelOrDefault(c.Embedding.Model), known)
	}
	if c.Embedding.Timeout < 0 {
		return fmt.Errorf("embedding.timeout must not be negative")
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported log format: %q", c.Logging.Format)
	}

	return nil
}

// modelDimensions holds the embedding length of the models each provider is
// commonly run with. The empty name is the provider's default model.
var modelDimensions = map[string]map[string]int{
	"clip": {
		"":         768,
		"ViT-L/14": 768,
		"ViT-B/32": 512,
		"ViT-B/16": 512,
	},
	"ollama": {
		"":                  768,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
	},
	"openai": {
		"":                       1536,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	},
	"gemini": {
		"":                   768,
		"text-embedding-004": 768,
		"embedding-001":      768,
	},
}

// ModelDimension returns the embedding length of a provider's model, or 0
// when the model is not known.
func ModelDimension(provider, model string) int {
	return modelDimensions[provider][model]
}

func modelOrDefault(model string) string {
	if model == "" {
		return "default"
	}
	return model
}

// Matching returns the engine configuration. Thresholds always come from
// the tuned defaults.
func (c *Config) Matching() matching.Config {
	return matching.DefaultConfig().
		WithDimension(c.Embedding.Dimension).
		WithParallelRotations(c.Embedding.ParallelRotations)
}

// UploadLimitBytes is the maximum accepted upload size.
func (c *Config) UploadLimitBytes() int64 {
	return c.Server.UploadLimitMB << 20
}
