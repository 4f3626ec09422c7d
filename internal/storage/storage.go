// Package storage persists registered books and their cover embeddings.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// ErrNotFound is returned when a book does not exist
var ErrNotFound = errors.New("not found")

// CandidateStore lists every cover embedding in one consistent read.
type CandidateStore interface {
	ListCandidates(ctx context.Context) ([]models.CandidateRecord, error)
}

// MetadataLookup resolves a book by ID, returning ErrNotFound for a miss.
type MetadataLookup interface {
	GetBook(ctx context.Context, id models.BookID) (*models.Book, error)
}

// Repository is the full book catalogue.
type Repository interface {
	CandidateStore
	MetadataLookup

	// RegisterBook stores the book and its cover embedding atomically.
	RegisterBook(ctx context.Context, book models.NewBook, vector models.Embedding) (models.BookID, error)
	SetCoverPath(ctx context.Context, id models.BookID, path string) error
	// UpsertEmbedding replaces the cover embedding of an existing book.
	UpsertEmbedding(ctx context.Context, id models.BookID, vector models.Embedding) error
	ListBooks(ctx context.Context) ([]models.Book, error)
	// DeleteBook removes the book and its embedding and returns what was deleted.
	DeleteBook(ctx context.Context, id models.BookID) (*models.Book, error)
	Stats(ctx context.Context) (models.StoreStats, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open creates a repository for the given driver.
//   - memory: in-process maps, nothing persisted
//   - sqlite: file at dsn (default data/covermatch.db)
//   - postgres: dsn is a postgres:// URL or key/value string
//
// An empty driver picks postgres for postgres:// DSNs and sqlite otherwise.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	if driver == "" {
		driver = "sqlite"
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			driver = "postgres"
		}
	}

	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		s, err := NewSQLiteStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
