// Package cataloging ties the matching engine to the book catalogue: it
// identifies photos, registers new covers and removes books.
package cataloging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/covers"
	"github.com/lehigh-university-libraries/covermatch/internal/matching"
	"github.com/lehigh-university-libraries/covermatch/internal/metrics"
	"github.com/lehigh-university-libraries/covermatch/internal/models"
	"github.com/lehigh-university-libraries/covermatch/internal/storage"
)

// ErrInvalidBook is returned when book metadata fails validation.
var ErrInvalidBook = errors.New("invalid book")

type Service struct {
	engine *matching.Engine
	repo   storage.Repository
	covers *covers.Store
}

func NewService(engine *matching.Engine, repo storage.Repository, coverStore *covers.Store) *Service {
	return &Service{
		engine: engine,
		repo:   repo,
		covers: coverStore,
	}
}

// Engine returns the matching engine used by the service.
func (s *Service) Engine() *matching.Engine {
	return s.engine
}

// Repository returns the book catalogue.
func (s *Service) Repository() storage.Repository {
	return s.repo
}

// Identify runs the matching engine on a photo and records metrics.
func (s *Service) Identify(ctx context.Context, data []byte) (matching.Result, error) {
	start := time.Now()
	res, err := s.engine.Identify(ctx, data)
	metrics.IdentifyDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		stage := "unknown"
		var stageErr *matching.StageError
		if errors.As(err, &stageErr) {
			stage = string(stageErr.Stage)
		}
		metrics.IdentifyErrors.WithLabelValues(stage).Inc()
		slog.Warn("Identification failed", "stage", stage, "err", err)
		return res, err
	}

	metrics.IdentifyTotal.WithLabelValues(res.Outcome.Tier.String(), res.Outcome.Style.String()).Inc()
	metrics.CandidateCount.Set(float64(res.Outcome.Candidates))

	if res.Match != nil {
		slog.Info("Book identified", "book_id", res.Match.ID, "title", res.Match.Title, "kind", res.Kind, "score", res.Match.SimilarityScore)
	} else {
		slog.Info("Book not recognised", "candidates", res.Outcome.Candidates, "style", res.Outcome.Style.String())
	}
	return res, nil
}

// Register embeds the upright cover and stores the book with its embedding
// in one transaction. The cover file is written afterwards; failing to write
// it leaves the book registered without a cover image.
func (s *Service) Register(ctx context.Context, book models.NewBook, data []byte) (*models.Book, error) {
	book.Title = strings.TrimSpace(book.Title)
	book.ISBN = strings.TrimSpace(book.ISBN)
	book.URL = strings.TrimSpace(book.URL)
	if book.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidBook)
	}

	img, format, err := matching.DecodeImage(data)
	if err != nil {
		return nil, err
	}

	vector, err := s.engine.EmbedCover(ctx, img)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.RegisterBook(ctx, book, vector)
	if err != nil {
		return nil, fmt.Errorf("failed to register book: %w", err)
	}
	metrics.RegistrationsTotal.Inc()

	if s.covers != nil {
		path, err := s.covers.Save(id, data, format)
		if err != nil {
			slog.Warn("Failed to save cover file", "book_id", id, "err", err)
		} else if err := s.repo.SetCoverPath(ctx, id, path); err != nil {
			slog.Warn("Failed to record cover path", "book_id", id, "path", path, "err", err)
		}
	}

	slog.Info("Book registered", "book_id", id, "title", book.Title, "dimension", len(vector))
	return s.repo.GetBook(ctx, id)
}

// Reembed recomputes the stored embedding of a book from its cover file,
// replacing the previous vector.
func (s *Service) Reembed(ctx context.Context, id models.BookID) error {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return err
	}
	if book.CoverPath == "" || s.covers == nil {
		return fmt.Errorf("book %d has no cover file", id)
	}

	data, _, err := s.covers.Open(book.CoverPath)
	if err != nil {
		return fmt.Errorf("failed to read cover of book %d: %w", id, err)
	}

	img, _, err := matching.DecodeImage(data)
	if err != nil {
		return err
	}

	vector, err := s.engine.EmbedCover(ctx, img)
	if err != nil {
		return err
	}

	if err := s.repo.UpsertEmbedding(ctx, id, vector); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	slog.Info("Book re-embedded", "book_id", id, "title", book.Title)
	return nil
}

// Delete removes a book, its embedding and its cover file.
func (s *Service) Delete(ctx context.Context, id models.BookID) (*models.Book, error) {
	book, err := s.repo.DeleteBook(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.DeletionsTotal.Inc()

	if s.covers != nil && book.CoverPath != "" {
		if err := s.covers.Remove(book.CoverPath); err != nil {
			slog.Warn("Failed to delete cover file", "book_id", id, "path", book.CoverPath, "err", err)
		}
	}

	slog.Info("Book deleted", "book_id", id, "title", book.Title)
	return book, nil
}

// Cover returns the cover image of a book, or a placeholder SVG when the
// book has no readable cover file.
func (s *Service) Cover(ctx context.Context, id models.BookID) ([]byte, string, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, "", err
	}

	if book.CoverPath != "" && s.covers != nil {
		data, contentType, err := s.covers.Open(book.CoverPath)
		if err == nil {
			return data, contentType, nil
		}
		if !os.IsNotExist(err) {
			slog.Warn("Failed to read cover file", "book_id", id, "path", book.CoverPath, "err", err)
		}
	}

	return covers.PlaceholderSVG(book.ID, book.Title), "image/svg+xml", nil
}
