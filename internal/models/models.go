package models

import "time"

// BookID identifies a registered book. It is the primary key shared by the
// book metadata row and its cover embedding.
type BookID int64

// Embedding is the visual embedding of one cover image in one orientation.
type Embedding []float32

// CandidateRecord is a registered cover embedding considered during matching
type CandidateRecord struct {
	ID     BookID
	Vector Embedding
}

// Book represents the metadata of a registered book
type Book struct {
	ID           BookID    `json:"id"`
	Title        string    `json:"title"`
	ISBN         string    `json:"isbn"`
	URL          string    `json:"url"`
	CoverPath    string    `json:"cover_path"`
	CreatedAt    time.Time `json:"created_at"`
	HasEmbedding bool      `json:"has_embedding"`
}

// NewBook holds the user supplied fields of a book being registered
type NewBook struct {
	Title string `json:"title"`
	ISBN  string `json:"isbn"`
	URL   string `json:"url"`
}

// StoreStats summarises the contents of the catalogue
type StoreStats struct {
	Books      int `json:"book_count"`
	Embeddings int `json:"embedding_count"`
}
