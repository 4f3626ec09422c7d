package matching

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
	"github.com/lehigh-university-libraries/covermatch/internal/storage"
)

// Embedder maps an image to its visual embedding.
type Embedder interface {
	EmbedImage(ctx context.Context, img image.Image) (models.Embedding, error)
}

// CandidateStore lists every registered cover embedding.
type CandidateStore interface {
	ListCandidates(ctx context.Context) ([]models.CandidateRecord, error)
}

// MetadataLookup resolves a book ID to its metadata. A missing book is
// reported as storage.ErrNotFound.
type MetadataLookup interface {
	GetBook(ctx context.Context, id models.BookID) (*models.Book, error)
}

// Engine identifies books from cover photos. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	cfg        Config
	embedder   Embedder
	candidates CandidateStore
	metadata   MetadataLookup
}

// NewEngine creates an engine over the given collaborators.
func NewEngine(cfg Config, embedder Embedder, candidates CandidateStore, metadata MetadataLookup) *Engine {
	return &Engine{
		cfg:        cfg,
		embedder:   embedder,
		candidates: candidates,
		metadata:   metadata,
	}
}

// Config returns the engine's matching configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Identify decodes a photo and identifies the book on it.
func (e *Engine) Identify(ctx context.Context, data []byte) (Result, error) {
	img, format, err := DecodeImage(data)
	if err != nil {
		return Result{}, stageErr(StageDecode, err)
	}

	slog.Debug("Decoded query image", "format", format, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return e.IdentifyImage(ctx, img)
}

// IdentifyImage identifies the book on an already decoded photo.
func (e *Engine) IdentifyImage(ctx context.Context, img image.Image) (Result, error) {
	start := time.Now()

	style := DetectStyle(img, e.cfg.CartoonVarianceThreshold)
	th := e.cfg.ThresholdsFor(style)

	candidates, err := e.candidates.ListCandidates(ctx)
	if err != nil {
		return Result{}, stageErr(StageLoadCandidates, err)
	}

	if len(candidates) == 0 {
		slog.Info("No registered covers, reporting unknown book", "style", style.String())
		out := Outcome{Tier: Unknown, Style: style, Thresholds: th}
		return BuildResult(out, nil), nil
	}

	for _, c := range candidates {
		if err := e.checkDimension(fmt.Sprintf("stored book %d", c.ID), c.Vector); err != nil {
			return Result{}, stageErr(StageScore, err)
		}
	}

	queries, err := e.embedRotations(ctx, img)
	if err != nil {
		return Result{}, stageErr(StageEmbed, err)
	}

	sel := SelectBest(queries, candidates, e.cfg.Scorer(style))
	out := Classify(sel, style, th)
	out.Candidates = len(candidates)

	slog.Info("Cover scan complete",
		"candidates", len(candidates),
		"comparisons", len(sel.Scores),
		"best_book_id", sel.Best.ID,
		"best_score", sel.Best.Score,
		"rotation", sel.Best.Rotation,
		"gap", out.Gap,
		"min_gap", th.MinGap,
		"style", style.String(),
		"tier", out.Tier.String(),
		"duration", time.Since(start))

	if !out.HasMatch {
		return BuildResult(out, nil), nil
	}

	book, err := e.metadata.GetBook(ctx, out.BookID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Result{}, stageErr(StageLookup,
				fmt.Errorf("%w: book %d has an embedding but no metadata", ErrMetadataInconsistency, out.BookID))
		}
		return Result{}, stageErr(StageLookup, err)
	}
	if book == nil {
		return Result{}, stageErr(StageLookup,
			fmt.Errorf("%w: book %d has an embedding but no metadata", ErrMetadataInconsistency, out.BookID))
	}

	return BuildResult(out, book), nil
}

// EmbedCover embeds a cover in its upright orientation, as done when a book
// is registered.
func (e *Engine) EmbedCover(ctx context.Context, img image.Image) (models.Embedding, error) {
	v, err := e.embed(ctx, img, "cover")
	if err != nil {
		return nil, stageErr(StageEmbed, err)
	}
	return v, nil
}

func (e *Engine) embedRotations(ctx context.Context, img image.Image) ([]RotatedEmbedding, error) {
	rotations := Rotations(img)
	out := make([]RotatedEmbedding, len(rotations))

	if !e.cfg.ParallelRotations {
		for i, r := range rotations {
			v, err := e.embed(ctx, r.Image, "query")
			if err != nil {
				return nil, fmt.Errorf("rotation %d: %w", r.Angle, err)
			}
			out[i] = RotatedEmbedding{Angle: r.Angle, Vector: v}
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range rotations {
		g.Go(func() error {
			v, err := e.embed(gctx, r.Image, "query")
			if err != nil {
				return fmt.Errorf("rotation %d: %w", r.Angle, err)
			}
			out[i] = RotatedEmbedding{Angle: r.Angle, Vector: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// embed calls the provider and checks the vector length. source names the
// image in dimension errors.
func (e *Engine) embed(ctx context.Context, img image.Image, source string) (models.Embedding, error) {
	v, err := e.embedder.EmbedImage(ctx, img)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	if err := e.checkDimension(source, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (e *Engine) checkDimension(source string, v models.Embedding) error {
	if e.cfg.Dimension > 0 && len(v) != e.cfg.Dimension {
		return &DimensionMismatchError{Source: source, Want: e.cfg.Dimension, Got: len(v)}
	}
	return nil
}
