// Package app assembles the catalogue service from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/covermatch/internal/cataloging"
	"github.com/lehigh-university-libraries/covermatch/internal/clip"
	"github.com/lehigh-university-libraries/covermatch/internal/config"
	"github.com/lehigh-university-libraries/covermatch/internal/covers"
	"github.com/lehigh-university-libraries/covermatch/internal/gemini"
	"github.com/lehigh-university-libraries/covermatch/internal/handlers"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/ollama"
	"github.com/lehigh-university-libraries/covermatch/internal/openai"
	"github.com/lehigh-university-libraries/covermatch/internal/providers"
	"github.com/lehigh-university-libraries/covermatch/internal/storage"
)

// App holds the wired service and the resources it owns.
type App struct {
	Config   *config.Config
	Service  *cataloging.Service
	Repo     storage.Repository
	Embedder *providers.Resilient
}

// New opens the catalogue and connects the embedding provider.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	inner, err := NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	embedder := providers.NewResilient(inner, providers.BreakerSettings{
		FailureThreshold: cfg.Embedding.BreakerFailures,
		OpenTimeout:      cfg.Embedding.BreakerTimeout,
		HalfOpenRequests: 1,
	})

	repo, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	coverStore, err := covers.NewStore(cfg.Covers.Dir)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	engine := matching.NewEngine(cfg.Matching(), embedder, repo, repo)
	slog.Info("Catalogue ready",
		"database", cfg.Database.Driver,
		"provider", embedder.Name(),
		"dimension", cfg.Embedding.Dimension,
		"covers", coverStore.Dir())

	return &App{
		Config:   cfg,
		Service:  cataloging.NewService(engine, repo, coverStore),
		Repo:     repo,
		Embedder: embedder,
	}, nil
}

// NewEmbedder returns the configured provider backend.
func NewEmbedder(cfg config.EmbeddingConfig) (providers.Embedder, error) {
	pc := providers.Config{
		URL:          cfg.URL,
		Model:        cfg.Model,
		CaptionModel: cfg.CaptionModel,
		Timeout:      cfg.Timeout,
	}

	switch cfg.Provider {
	case "clip":
		return clip.New(pc), nil
	case "ollama":
		return ollama.New(pc), nil
	case "openai":
		return openai.New(pc), nil
	case "gemini":
		return gemini.New(pc), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}

// ProviderInfo describes the provider for the status endpoints.
func (a *App) ProviderInfo() handlers.ProviderInfo {
	model := a.Config.Embedding.Model
	if model == "" {
		model = "default"
	}
	return handlers.ProviderInfo{
		Name:  a.Embedder.Name(),
		Model: model,
		State: a.Embedder.State,
	}
}

// Handler returns the HTTP API for the service.
func (a *App) Handler() *handlers.Handler {
	return handlers.New(a.Service, a.ProviderInfo(), a.Config.UploadLimitBytes())
}

func (a *App) Close() error {
	return a.Repo.Close()
}
