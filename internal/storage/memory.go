package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// MemoryStore keeps the catalogue in memory. Reads return copies, so a
// caller's snapshot is never changed by a later write.
type MemoryStore struct {
	books      map[models.BookID]models.Book
	embeddings map[models.BookID]models.Embedding
	nextID     models.BookID
	mu         sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books:      make(map[models.BookID]models.Book),
		embeddings: make(map[models.BookID]models.Embedding),
		nextID:     1,
	}
}

func (s *MemoryStore) ListCandidates(ctx context.Context) ([]models.CandidateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.CandidateRecord, 0, len(s.embeddings))
	for id, v := range s.embeddings {
		result = append(result, models.CandidateRecord{ID: id, Vector: cloneVector(v)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) GetBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, exists := s.books[id]
	if !exists {
		return nil, ErrNotFound
	}
	_, book.HasEmbedding = s.embeddings[id]
	return &book, nil
}

func (s *MemoryStore) RegisterBook(ctx context.Context, book models.NewBook, vector models.Embedding) (models.BookID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	s.books[id] = models.Book{
		ID:        id,
		Title:     book.Title,
		ISBN:      book.ISBN,
		URL:       book.URL,
		CreatedAt: time.Now().UTC(),
	}
	s.embeddings[id] = cloneVector(vector)
	return id, nil
}

func (s *MemoryStore) SetCoverPath(ctx context.Context, id models.BookID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, exists := s.books[id]
	if !exists {
		return ErrNotFound
	}
	book.CoverPath = path
	s.books[id] = book
	return nil
}

func (s *MemoryStore) UpsertEmbedding(ctx context.Context, id models.BookID, vector models.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.books[id]; !exists {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	s.embeddings[id] = cloneVector(vector)
	return nil
}

func (s *MemoryStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Book, 0, len(s.books))
	for id, book := range s.books {
		_, book.HasEmbedding = s.embeddings[id]
		result = append(result, book)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (s *MemoryStore) DeleteBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, exists := s.books[id]
	if !exists {
		return nil, ErrNotFound
	}
	_, book.HasEmbedding = s.embeddings[id]

	delete(s.embeddings, id)
	delete(s.books, id)
	return &book, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (models.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.StoreStats{Books: len(s.books), Embeddings: len(s.embeddings)}, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneVector(v models.Embedding) models.Embedding {
	out := make(models.Embedding, len(v))
	copy(out, v)
	return out
}
