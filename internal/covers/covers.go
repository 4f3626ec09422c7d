// Package covers stores uploaded cover images on disk.
package covers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/covermatch/internal/models"
)

// Store writes cover files under a single directory.
type Store struct {
	dir string
}

// NewStore creates the cover directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "covers"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create covers directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cover directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the cover of a book and returns its path, named
// book_<id>_<8 hex chars>.<ext>.
func (s *Store) Save(id models.BookID, data []byte, format string) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}

	name := fmt.Sprintf("book_%d_%s%s", id, hex.EncodeToString(suffix), Extension(format))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cover: %w", err)
	}
	return path, nil
}

// Open reads a stored cover and sniffs its content type.
func (s *Store) Open(path string) ([]byte, string, error) {
	if !s.owns(path) {
		return nil, "", fmt.Errorf("cover path outside of %s: %s", s.dir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read cover: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// Remove deletes a stored cover. A missing file is not an error.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if !s.owns(path) {
		return fmt.Errorf("cover path outside of %s: %s", s.dir, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cover: %w", err)
	}
	return nil
}

func (s *Store) owns(path string) bool {
	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return false
	}
	p, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Extension maps a decoder format name to a file extension.
func Extension(format string) string {
	switch format {
	case "jpeg", "":
		return ".jpg"
	case "tiff":
		return ".tif"
	default:
		return "." + format
	}
}

// PlaceholderSVG renders the image served for a book without a cover file.
func PlaceholderSVG(id models.BookID, title string) []byte {
	label := title
	if utf8.RuneCountInString(label) > 10 {
		label = string([]rune(label)[:10]) + "..."
	}

	return []byte(fmt.Sprintf(`<svg width="150" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="150" height="200" fill="#f0f0f0" stroke="#ccc" stroke-width="2"/>
  <text x="75" y="90" text-anchor="middle" font-family="Arial" font-size="12" fill="#666">%s</text>
  <text x="75" y="110" text-anchor="middle" font-family="Arial" font-size="10" fill="#999">ID: %d</text>
</svg>`, html.EscapeString(label), id))
}
