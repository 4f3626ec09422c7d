package images

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	f := NewFetcher()
	f.limiter = nil
	f.CoversURL = server.URL
	f.BooksURL = server.URL
	return f
}

func TestFetchSeed(t *testing.T) {
	cover := bytes.Repeat([]byte{0xab}, 4096)
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/b/isbn/9780394800165-L.jpg":
			_, _ = w.Write(cover)
		case "/api/books":
			assert.Equal(t, "ISBN:9780394800165", r.URL.Query().Get("bibkeys"))
			assert.Equal(t, "data", r.URL.Query().Get("jscmd"))
			_, _ = w.Write([]byte(`{"ISBN:9780394800165":{"title":"Green Eggs and Ham","url":"https://openlibrary.org/books/OL1M"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	seed, err := f.FetchSeed(context.Background(), "978-0-394-80016-5")
	require.NoError(t, err)
	assert.Equal(t, "9780394800165", seed.ISBN)
	assert.Equal(t, "Green Eggs and Ham", seed.Title)
	assert.Equal(t, "https://openlibrary.org/books/OL1M", seed.URL)
	assert.Equal(t, cover, seed.Cover)
}

func TestFetchCoverRejectsPlaceholder(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("GIF89a tiny"))
	})

	_, err := f.FetchCover(context.Background(), "123")
	if !errors.Is(err, ErrNoCover) {
		t.Errorf("Expected ErrNoCover, got %v", err)
	}
}

func TestFetchTitleMissingRecord(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, _, err := f.FetchTitle(context.Background(), "123")
	assert.Error(t, err)
}

func TestFetchTitleWithSubtitle(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ISBN:1":{"title":"Dune","subtitle":"A Novel"}}`))
	})

	title, _, err := f.FetchTitle(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Dune: A Novel", title)
}

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-394-80016-5", "9780394800165"},
		{"  0394800168 ", "0394800168"},
		{"0-8044-2957-x", "080442957X"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanISBN(tt.input); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}
