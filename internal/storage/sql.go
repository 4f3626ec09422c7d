package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// SQLStore implements Repository over database/sql. Queries are written with
// ? placeholders and rebound for the dialect.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

func (s *SQLStore) q(query string) string {
	if s.dialect != "postgres" {
		return query
	}
	return rebindDollar(query)
}

// rebindDollar rewrites ? placeholders as $1, $2, ...
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func runMigrations(db *sql.DB, files fs.FS, dir string) error {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(files, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(data)); err != nil {
			return fmt.Errorf("exec migration %s: %w", name, err)
		}
		slog.Debug("Applied migration", "file", name)
	}
	return nil
}

// ListCandidates reads all embeddings in a single statement, which sees
// only committed rows.
func (s *SQLStore) ListCandidates(ctx context.Context) ([]models.CandidateRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT book_id, vector FROM cover_embeddings ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	var records []models.CandidateRecord
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		v, err := DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("book %d: %w", id, err)
		}
		records = append(records, models.CandidateRecord{ID: models.BookID(id), Vector: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate embeddings: %w", err)
	}
	return records, nil
}

const bookColumns = `b.id, b.title, b.isbn, b.url, b.cover_path, b.created_at,
	EXISTS (SELECT 1 FROM cover_embeddings e WHERE e.book_id = b.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var b models.Book
	var id int64
	if err := row.Scan(&id, &b.Title, &b.ISBN, &b.URL, &b.CoverPath, &b.CreatedAt, &b.HasEmbedding); err != nil {
		return nil, err
	}
	b.ID = models.BookID(id)
	return &b, nil
}

func (s *SQLStore) GetBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+bookColumns+` FROM books b WHERE b.id = ?`), int64(id))
	b, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}
	return b, nil
}

func (s *SQLStore) RegisterBook(ctx context.Context, book models.NewBook, vector models.Embedding) (models.BookID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx,
		s.q(`INSERT INTO books (title, isbn, url, cover_path, created_at) VALUES (?, ?, ?, '', ?) RETURNING id`),
		book.Title, book.ISBN, book.URL, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert book: %w", err)
	}

	if err := s.upsertEmbedding(ctx, tx, models.BookID(id), vector); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit registration: %w", err)
	}
	return models.BookID(id), nil
}

func (s *SQLStore) upsertEmbedding(ctx context.Context, tx *sql.Tx, id models.BookID, vector models.Embedding) error {
	_, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO cover_embeddings (book_id, vector) VALUES (?, ?)
		ON CONFLICT (book_id) DO UPDATE SET vector = excluded.vector`),
		int64(id), EncodeVector(vector),
	)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

func (s *SQLStore) SetCoverPath(ctx context.Context, id models.BookID, path string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE books SET cover_path = ? WHERE id = ?`), path, int64(id))
	if err != nil {
		return fmt.Errorf("update cover path: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLStore) UpsertEmbedding(ctx context.Context, id models.BookID, vector models.Embedding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, s.q(`SELECT EXISTS (SELECT 1 FROM books WHERE id = ?)`), int64(id)).Scan(&exists); err != nil {
		return fmt.Errorf("query book: %w", err)
	}
	if !exists {
		return fmt.Errorf("book %d: %w", id, ErrNotFound)
	}

	if err := s.upsertEmbedding(ctx, tx, id, vector); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit embedding: %w", err)
	}
	return nil
}

func (s *SQLStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books b ORDER BY b.created_at DESC, b.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}
	return books, nil
}

func (s *SQLStore) DeleteBook(ctx context.Context, id models.BookID) (*models.Book, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	b, err := scanBook(tx.QueryRowContext(ctx, s.q(`SELECT `+bookColumns+` FROM books b WHERE b.id = ?`), int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM cover_embeddings WHERE book_id = ?`), int64(id)); err != nil {
		return nil, fmt.Errorf("delete embedding: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM books WHERE id = ?`), int64(id)); err != nil {
		return nil, fmt.Errorf("delete book: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return b, nil
}

func (s *SQLStore) Stats(ctx context.Context) (models.StoreStats, error) {
	var stats models.StoreStats
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM books), (SELECT COUNT(*) FROM cover_embeddings)`,
	).Scan(&stats.Books, &stats.Embeddings)
	if err != nil {
		return stats, fmt.Errorf("count books: %w", err)
	}
	return stats, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
